// Package cache adapts pkg/cache.RedisCache to the outbound ports this
// core needs — here, the idempotent-resend ResponseCache (spec.md §4.3
// invariant 5).
package cache

import (
	"context"
	"time"

	"easgateway/pkg/cache"

	"github.com/redis/go-redis/v9"
)

// ResponseCache implements out.ResponseCache over pkg/cache.RedisCache,
// storing raw WBXML bytes as the cache value's underlying string.
type ResponseCache struct {
	redis *cache.RedisCache
}

// NewResponseCache wraps an existing RedisCache.
func NewResponseCache(redisCache *cache.RedisCache) *ResponseCache {
	return &ResponseCache{redis: redisCache}
}

// Get returns the cached bytes for key, or (nil, false, nil) on a miss —
// a miss is never an error; callers fall back to deterministic
// reconstruction.
func (r *ResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.redis.Get(ctx, key)
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Set stores body under key with ttl.
func (r *ResponseCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return r.redis.Set(ctx, key, string(body), ttl)
}
