// Package cache provides the Redis-backed user cache used by the session
// resolver.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/boxforum/boxforum/backend/internal/service"
	"github.com/boxforum/boxforum/shared/domain"
	"github.com/boxforum/boxforum/shared/middleware/metrics"
	"github.com/redis/go-redis/v9"
)

var _ service.UserCache = (*RedisUserCache)(nil)

// RedisUserCache stores user profiles as JSON under "user:<id>".
type RedisUserCache struct {
	client *redis.Client
	prefix string
}

// NewRedisUserCache connects to redisURL and verifies the connection.
func NewRedisUserCache(redisURL string) (*RedisUserCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisUserCacheWithClient(client), nil
}

func NewRedisUserCacheWithClient(client *redis.Client) *RedisUserCache {
	return &RedisUserCache{client: client, prefix: "user:"}
}

func (c *RedisUserCache) key(id domain.UserId) string {
	return c.prefix + id
}

func (c *RedisUserCache) Get(ctx context.Context, id domain.UserId) (user domain.User, ok bool, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("redis", "get", start, err) }()

	data, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, fmt.Errorf("get cached user: %w", err)
	}
	if err := json.Unmarshal(data, &user); err != nil {
		return domain.User{}, false, fmt.Errorf("unmarshal cached user: %w", err)
	}
	return user, true, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user domain.User, ttl time.Duration) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall("redis", "set", start, err) }()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := c.client.Set(ctx, c.key(user.Id), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache user: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, id domain.UserId) error {
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("delete cached user: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisUserCache) Close() error {
	return c.client.Close()
}
