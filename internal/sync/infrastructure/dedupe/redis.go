// Package dedupe records push-delivery idempotency keys. Deliveries are
// at-least-once; the registry turns gift crediting into at-most-once
// per key.
package dedupe

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "questa:push_delivery:"

// RedisRegistry is a Redis SETNX-backed idempotency registry shared
// across devices and restarts.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a registry. Keys expire after ttl; a
// retransmit later than that is treated as a fresh delivery.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

// FirstDelivery records the key and reports whether it was unseen.
func (r *RedisRegistry) FirstDelivery(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, keyPrefix+key, 1, r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to register delivery key: %w", err)
	}
	return ok, nil
}
