package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boxforum/boxforum/backend/internal/handler"
	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/backend/internal/service/utils"
	"github.com/boxforum/boxforum/backend/internal/storage/cache"
	"github.com/boxforum/boxforum/backend/internal/storage/fs"
	"github.com/boxforum/boxforum/backend/internal/storage/objectstore"
	"github.com/boxforum/boxforum/backend/internal/storage/pg"
	"github.com/boxforum/boxforum/shared/config"
	"github.com/boxforum/boxforum/shared/jwt"
	mw "github.com/boxforum/boxforum/shared/middleware"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Handler *handler.Handler
	Auth    *mw.Auth
	Jwt     jwt.JwtService
	Users   *service.Users
	ImageGC *service.ImageGC
	// MediaRoot is the local image directory served under MediaBaseURL, empty
	// when images live in an object store.
	MediaRoot string

	cache *cache.RedisUserCache
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config, l *slog.Logger) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{Config: cfg, Storage: storage}
	health := service.NewHealth().Add("postgres", storage)

	var images service.ImageLister
	switch cfg.Public.ImageStore {
	case "minio":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		store, err := objectstore.New(ctx, cfg.Private.Minio, cfg.Public.MediaBaseURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("image store: %w", err)
		}
		images = store
		health.Add("minio", store)
	default:
		store, err := fs.New(cfg.Public.MediaPath, cfg.Public.MediaBaseURL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("image store: %w", err)
		}
		images = store
		deps.MediaRoot = store.RootPath()
	}

	// a nil *RedisUserCache must not end up inside the interface
	var userCache service.UserCache
	if cfg.Private.Redis.URL != "" {
		c, err := cache.NewRedisUserCache(cfg.Private.Redis.URL)
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("user cache: %w", err)
		}
		deps.cache = c
		userCache = c
		health.Add("redis", c)
	} else {
		l.Info("redis url not set, user cache disabled")
	}

	deps.Users = service.NewUsers(storage, userCache, cfg.Public.UserCacheTTL, l)
	deps.Jwt = jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	deps.Auth = mw.NewAuth(deps.Jwt, deps.Users)

	deps.ImageGC = service.NewImageGC(storage, images, cfg.Public.ImageGCMinAge, l)

	sanitizer := utils.NewHTMLSanitizer()
	deps.Handler = handler.New(handler.Services{
		Box:      service.NewBox(storage, images, cfg.Public, l),
		Thread:   service.NewThread(storage, images, sanitizer, cfg.Public, l),
		Comment:  service.NewComment(storage, sanitizer, cfg.Public, l),
		Vote:     service.NewVote(storage, l),
		Activity: service.NewUserActivity(storage),
	}, health, cfg)

	return deps, nil
}

// Close releases the database pool and the cache client.
func (d *Dependencies) Close() {
	if d.cache != nil {
		d.cache.Close()
	}
	if d.Storage != nil {
		d.Storage.Cleanup()
	}
}
