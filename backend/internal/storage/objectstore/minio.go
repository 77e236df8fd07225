// Package objectstore keeps thread images in an S3-compatible bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/middleware/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var _ service.ImageLister = (*Storage)(nil)

// Storage uploads objects to one bucket and links them under baseURL, which
// is either a public bucket endpoint or a proxy in front of it.
type Storage struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// New connects to the endpoint and creates the bucket when missing.
func New(ctx context.Context, cfg config.Minio, baseURL string) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}
	return &Storage{client: client, bucket: cfg.Bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("minio", "upload", start, err) }()

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

// Delete removes the object. S3 semantics make a missing key a success.
func (s *Storage) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("minio", "delete", start, err) }()

	if err = s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

// ListImages lists every object under prefix.
func (s *Storage) ListImages(ctx context.Context, prefix string) (images []service.StoredImage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("minio", "list", start, err) }()

	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects %s: %w", prefix, obj.Err)
		}
		images = append(images, service.StoredImage{Key: obj.Key, ModTime: obj.LastModified})
	}
	return images, nil
}

func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}
