package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"analytics-chat/internal/common/logger"
)

// RedisCache shares cached entries across replicas. Redis errors degrade to
// cache misses.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

func NewRedisCache(client redis.Cmdable, opts Options, log logger.Logger) *RedisCache {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "analytics-chat:"
	}
	return &RedisCache{
		client: client,
		ttl:    opts.TTL,
		prefix: prefix,
		logger: logger.ForComponent(log, "redis-cache"),
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return nil, false
	}
	return raw, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.prefix+key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// Invalidate removes every key under this cache's prefix.
func (r *RedisCache) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, r.prefix+"*", 100).Result()
		if err != nil {
			r.logger.Warn("cache invalidate scan failed", map[string]interface{}{"error": err.Error()})
			return
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				r.logger.Warn("cache invalidate delete failed", map[string]interface{}{"error": err.Error()})
				return
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
