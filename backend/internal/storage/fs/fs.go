package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/shared/middleware/metrics"
)

// Storage keeps thread images on local disk under rootPath and serves them
// from baseURL.
type Storage struct {
	rootPath string
	baseURL  string
}

// Ensure Storage struct implements the interface at compile time.
var _ service.ImageLister = (*Storage)(nil)

func New(rootPath, baseURL string) (*Storage, error) {
	// Use filepath.Clean to prevent path traversal issues like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// RootPath is the directory the HTTP layer serves baseURL from.
func (s *Storage) RootPath() string {
	return s.rootPath
}

// path resolves key inside rootPath and rejects keys that escape it.
func (s *Storage) path(key string) (string, error) {
	full := filepath.Join(s.rootPath, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.rootPath+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid image key %q", key)
	}
	return full, nil
}

// Upload writes data under key. contentType is implied by the stored bytes.
func (s *Storage) Upload(ctx context.Context, key string, data []byte, contentType string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("fs", "upload", start, err) }()

	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	// Lazily create the thread subdirectory.
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create subdirectories: %w", err)
	}

	// write to a temp file first so readers never see a partial image
	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write file data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Delete removes the object. A missing object is not an error.
func (s *Storage) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("fs", "delete", start, err) }()

	fullPath, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	// drop the thread directory once its last image is gone
	if dir := filepath.Dir(fullPath); dir != s.rootPath {
		os.Remove(dir)
	}
	return nil
}

func (s *Storage) URL(key string) string {
	return s.baseURL + "/" + key
}

// ListImages walks every file under prefix. A missing directory lists as empty.
func (s *Storage) ListImages(ctx context.Context, prefix string) (images []service.StoredImage, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("fs", "list", start, err) }()

	root, err := s.path(prefix)
	if err != nil {
		return nil, err
	}
	err = filepath.WalkDir(root, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.rootPath, p)
		if err != nil {
			return err
		}
		images = append(images, service.StoredImage{Key: filepath.ToSlash(rel), ModTime: info.ModTime()})
		return nil
	})
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return images, nil
}
