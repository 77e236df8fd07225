package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/boxforum/boxforum/backend/internal/service/utils"
	internal_errors "github.com/boxforum/boxforum/shared/errors"
	"github.com/google/uuid"
)

// imageManager owns the lifecycle of thread images around content writes:
// uploads happen before the transaction, rollback deletes them when the
// transaction fails, release deletes replaced images after commit.
type imageManager struct {
	store       ImageStore
	sanitizer   Sanitizer
	logger      *slog.Logger
	maxSize     int64
	thumbHeight int
}

// threadImage is the image state a write will persist.
type threadImage struct {
	body     string   // body with the data source swapped for the stored URL
	imageUrl string   // stored on the thread
	uploaded []string // keys written for this write only
}

func imageKey(threadId, imageId string) string {
	return threadImagePrefix + threadId + "/" + imageId
}

func thumbnailKey(threadId, imageId string) string {
	return imageKey(threadId, imageId) + "-thumbnail"
}

func isExternalImage(imageUrl string) bool {
	return strings.HasPrefix(imageUrl, "http://") || strings.HasPrefix(imageUrl, "https://")
}

func isSelfHosted(imageUrl string) bool {
	return imageUrl != "" && !isExternalImage(imageUrl)
}

// attach resolves the single image of a sanitized body. current is the
// thread's existing imageUrl on updates, empty on create.
func (m *imageManager) attach(ctx context.Context, threadId, body string, current string) (threadImage, error) {
	srcs := m.sanitizer.ImageSources(body)
	if len(srcs) == 0 {
		return threadImage{body: body}, nil
	}
	src := srcs[0]

	switch {
	case isSelfHosted(current) && src == m.store.URL(imageKey(threadId, current)):
		return threadImage{body: body, imageUrl: current}, nil
	case isExternalImage(src):
		return threadImage{body: body, imageUrl: src}, nil
	case strings.HasPrefix(src, "data:"):
		return m.upload(ctx, threadId, body, src)
	}
	return threadImage{}, internal_errors.Validation("Image must be an uploaded image or an http(s) URL")
}

func (m *imageManager) upload(ctx context.Context, threadId, body, src string) (threadImage, error) {
	img, err := utils.DecodeDataURL(src, m.maxSize)
	if err != nil {
		if errors.Is(err, utils.ErrImageTooLarge) {
			return threadImage{}, internal_errors.Validation(fmt.Sprintf("Image exceeds %d bytes", m.maxSize))
		}
		return threadImage{}, internal_errors.Validation("Image data is invalid")
	}
	thumb, err := utils.Thumbnail(img.Data, m.thumbHeight)
	if err != nil {
		return threadImage{}, internal_errors.Validation("Image data is invalid")
	}

	imageId := uuid.NewString()
	key := imageKey(threadId, imageId)
	result := threadImage{imageUrl: imageId}

	if err := m.store.Upload(ctx, key, img.Data, img.ContentType); err != nil {
		m.logger.Error("image upload failed", "threadId", threadId, "key", key, "error", err)
		return threadImage{}, internal_errors.ImageFailure("Image upload failed")
	}
	result.uploaded = append(result.uploaded, key)

	tkey := thumbnailKey(threadId, imageId)
	if err := m.store.Upload(ctx, tkey, thumb, "image/jpeg"); err != nil {
		m.logger.Error("thumbnail upload failed", "threadId", threadId, "key", tkey, "error", err)
		m.rollback(ctx, result)
		return threadImage{}, internal_errors.ImageFailure("Image upload failed")
	}
	result.uploaded = append(result.uploaded, tkey)

	result.body = m.sanitizer.ReplaceImageSource(body, src, m.store.URL(key))
	return result, nil
}

// rollback removes objects uploaded for a write that did not commit.
func (m *imageManager) rollback(ctx context.Context, img threadImage) {
	for _, key := range img.uploaded {
		if err := m.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			m.logger.Warn("failed to roll back uploaded image", "key", key, "error", err)
		}
	}
}

// release deletes a committed-away self-hosted image. Failures are logged
// and dropped: a leaked object is acceptable, a failed write after commit is not.
func (m *imageManager) release(ctx context.Context, threadId, imageUrl string) {
	if !isSelfHosted(imageUrl) {
		return
	}
	for _, key := range []string{imageKey(threadId, imageUrl), thumbnailKey(threadId, imageUrl)} {
		if err := m.store.Delete(context.WithoutCancel(ctx), key); err != nil {
			m.logger.Warn("failed to release image", "threadId", threadId, "key", key, "error", err)
		}
	}
}
