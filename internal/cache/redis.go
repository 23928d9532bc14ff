package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markuskkkl/dav-pimcore/config"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

// RedisCache caches fetched object details using Redis. Keys carry the
// object's modificationDate, so a changed object misses naturally and no
// explicit invalidation is needed.
type RedisCache struct {
	client  *redis.Client
	ttl     time.Duration
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		ttl:     cfg.TTL,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache is usable
func (c *RedisCache) Enabled() bool {
	return c != nil && c.enabled
}

// GetObject retrieves a cached object detail
func (c *RedisCache) GetObject(ctx context.Context, key string) (map[string]interface{}, error) {
	if !c.Enabled() {
		return nil, errors.New("cache is disabled")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.Wrap(err, "key not found in cache")
		}
		return nil, errors.Wrap(err, "failed to get value from Redis")
	}

	var value map[string]interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal cached value")
	}

	return value, nil
}

// SetObject stores an object detail in the cache
func (c *RedisCache) SetObject(ctx context.Context, key string, value map[string]interface{}) error {
	if !c.Enabled() {
		return errors.New("cache is disabled")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}

	return nil
}

// ObjectCacheKey generates a cache key for one object detail
func ObjectCacheKey(id, modificationDate int64) string {
	return fmt.Sprintf("object:%d:%d", id, modificationDate)
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.Enabled() || c.client == nil {
		return nil
	}

	return c.client.Close()
}
