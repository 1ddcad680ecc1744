// Package tokencache stores external-integration access tokens. The
// Redis implementation survives process restarts; the in-memory one is
// for tests and single-process runs without Redis.
package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "questa:integration_token:"

// RedisCache is a Redis-backed token cache.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis token cache. Tokens expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached token, or "" on a miss.
func (c *RedisCache) Get(ctx context.Context, tokenID string) (string, error) {
	val, err := c.client.Get(ctx, keyPrefix+tokenID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return val, nil
}

// Set stores a token.
func (c *RedisCache) Set(ctx context.Context, tokenID, token string) error {
	if err := c.client.Set(ctx, keyPrefix+tokenID, token, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// Invalidate drops a token so the next read re-authenticates.
func (c *RedisCache) Invalidate(ctx context.Context, tokenID string) error {
	if err := c.client.Del(ctx, keyPrefix+tokenID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}
