package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/logger"
)

// UserStorage is the lookup the session resolver falls back to.
type UserStorage interface {
	GetUser(ctx context.Context, id domain.UserId) (domain.User, error)
}

// Users resolves session subjects to users, through the cache when one is
// configured. Cache failures degrade to storage reads.
type Users struct {
	storage UserStorage
	cache   UserCache
	ttl     time.Duration
	logger  *slog.Logger
}

func NewUsers(storage UserStorage, cache UserCache, ttl time.Duration, l *slog.Logger) *Users {
	return &Users{storage: storage, cache: cache, ttl: ttl, logger: logger.Component(l, "session")}
}

func (u *Users) FindUserById(ctx context.Context, id domain.UserId) (domain.User, error) {
	if u.cache != nil {
		user, ok, err := u.cache.Get(ctx, id)
		if err != nil {
			u.logger.Warn("user cache read failed", "userId", id, "error", err)
		} else if ok {
			return user, nil
		}
	}

	user, err := u.storage.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, user, u.ttl); err != nil {
			u.logger.Warn("user cache write failed", "userId", id, "error", err)
		}
	}
	return user, nil
}

// Forget drops a cached user, e.g. after a role change.
func (u *Users) Forget(ctx context.Context, id domain.UserId) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, id); err != nil {
		u.logger.Warn("user cache delete failed", "userId", id, "error", err)
	}
}
