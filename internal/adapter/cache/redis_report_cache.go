package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisReportCache stores rendered report payloads in Redis with a TTL.
type RedisReportCache struct {
	client redis.UniversalClient
}

// NewRedisReportCache constructs a Redis-backed report cache.
func NewRedisReportCache(client redis.UniversalClient) *RedisReportCache {
	return &RedisReportCache{client: client}
}

// Get loads a cached payload. A miss returns (nil, nil).
func (c *RedisReportCache) Get(ctx context.Context, key string) ([]byte, error) {
	bytes, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load report: %w", err)
	}
	return bytes, nil
}

// Set stores the payload under key for ttl.
func (c *RedisReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	return nil
}
