package adapter

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/apardew63/wetarseel-server/internal/infrastructure/cache/port"
)

// RedisCache satisfies the port.Cache interface using Redis. It shares the
// process-wide Redis client rather than owning a connection of its own.
type RedisCache struct {
	client *redis.Client
}

// NewRedisAdapter wraps an already constructed go-redis client.
func NewRedisAdapter(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Ensure interface compliance at compile time
var _ port.Cache = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) (string, error) {
	res, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", port.ErrMiss
	}
	if err != nil {
		return "", err
	}
	return res, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	return r.client.Del(ctx, keys...).Result()
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
