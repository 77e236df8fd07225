package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/logger"
)

// StoredImage is an object found in the image store.
type StoredImage struct {
	Key     string
	ModTime time.Time
}

// ImageLister is an image store that can enumerate its objects.
type ImageLister interface {
	ImageStore
	ListImages(ctx context.Context, prefix string) ([]StoredImage, error)
}

// ImageGC removes thread images no thread references any more. Releases
// after commit are best-effort, so objects leak when the store is down at
// the wrong moment; the collector reclaims them.
type ImageGC struct {
	storage ContentReader
	images  ImageLister
	minAge  time.Duration
	logger  *slog.Logger

	mu   sync.Mutex
	last GCStats
}

// GCStats describes one collection run.
type GCStats struct {
	RunAt    time.Time
	Scanned  int
	Orphaned int
	Deleted  int
	Duration time.Duration
	Errors   []string
}

// NewImageGC creates a collector. minAge is the age an unreferenced object
// must reach before it is deleted: uploads happen before the thread row
// commits, so younger objects may still be claimed.
func NewImageGC(storage ContentReader, images ImageLister, minAge time.Duration, l *slog.Logger) *ImageGC {
	return &ImageGC{
		storage: storage,
		images:  images,
		minAge:  minAge,
		logger:  logger.Component(l, "image-gc"),
	}
}

// Start runs the collector every interval until ctx is done.
func (gc *ImageGC) Start(ctx context.Context, interval time.Duration) {
	gc.logger.Info("started background cleanup", "interval", interval, "minAge", gc.minAge)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats, err := gc.Run(ctx)
				if err != nil {
					gc.logger.Error("cleanup failed", "error", err)
					continue
				}
				gc.logger.Info("cleanup completed",
					"scanned", stats.Scanned,
					"orphaned", stats.Orphaned,
					"deleted", stats.Deleted,
					"duration", stats.Duration,
					"errors", len(stats.Errors),
				)
			case <-ctx.Done():
				gc.logger.Info("shutting down")
				return
			}
		}
	}()
}

// Run executes a single collection cycle.
func (gc *ImageGC) Run(ctx context.Context) (GCStats, error) {
	start := time.Now()
	stats := GCStats{RunAt: start}

	stored, err := gc.images.ListImages(ctx, threadImagePrefix)
	if err != nil {
		return stats, fmt.Errorf("list images: %w", err)
	}
	stats.Scanned = len(stored)

	var threadIds []domain.ThreadId
	seen := make(map[domain.ThreadId]bool)
	for _, img := range stored {
		if threadId, _, ok := parseImageKey(img.Key); ok && !seen[threadId] {
			seen[threadId] = true
			threadIds = append(threadIds, threadId)
		}
	}
	var threads []domain.Thread
	if len(threadIds) > 0 {
		threads, err = gc.storage.GetThreads(ctx, threadIds)
		if err != nil {
			return stats, fmt.Errorf("load threads: %w", err)
		}
	}
	inUse := make(map[domain.ThreadId]string, len(threads))
	for _, t := range threads {
		if isSelfHosted(t.ImageUrl) {
			inUse[t.Id] = t.ImageUrl
		}
	}

	for _, img := range stored {
		threadId, imageId, ok := parseImageKey(img.Key)
		if ok && inUse[threadId] == imageId {
			continue
		}
		if start.Sub(img.ModTime) < gc.minAge {
			continue
		}
		stats.Orphaned++
		if err := gc.images.Delete(ctx, img.Key); err != nil {
			stats.Errors = append(stats.Errors, img.Key+": "+err.Error())
			continue
		}
		stats.Deleted++
	}

	stats.Duration = time.Since(start)
	gc.mu.Lock()
	gc.last = stats
	gc.mu.Unlock()
	return stats, nil
}

// LastStats returns the statistics of the most recent run.
func (gc *ImageGC) LastStats() GCStats {
	gc.mu.Lock()
	defer gc.mu.Unlock()
	return gc.last
}

const threadImagePrefix = "threads/"

// parseImageKey splits threads/{thread}/{image}[-thumbnail].
func parseImageKey(key string) (threadId, imageId string, ok bool) {
	rest, found := strings.CutPrefix(key, threadImagePrefix)
	if !found {
		return "", "", false
	}
	threadId, name, found := strings.Cut(rest, "/")
	if !found || threadId == "" || name == "" || strings.Contains(name, "/") {
		return "", "", false
	}
	return threadId, strings.TrimSuffix(name, "-thumbnail"), true
}
