package common

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"synq/backend/internal/logging"
)

// RedisCacheService implements CacheInterface using Redis. Failures are
// logged and treated as misses; the database stays the source of truth.
type RedisCacheService struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

func NewRedisCacheService(client *redis.Client, prefix string) *RedisCacheService {
	return &RedisCacheService{
		client:  client,
		prefix:  prefix,
		timeout: 2 * time.Second,
	}
}

func (r *RedisCacheService) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		logging.Warn("redis cache: failed to marshal value", "key", key, "error", err)
		return
	}

	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.prefix+key, data, duration).Err(); err != nil {
		logging.Warn("redis cache: failed to set key", "key", key, "error", err)
	}
}

func (r *RedisCacheService) GetInto(key string, dest interface{}) bool {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		logging.Warn("redis cache: failed to get key", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		logging.Warn("redis cache: failed to unmarshal value", "key", key, "error", err)
		return false
	}
	return true
}

func (r *RedisCacheService) Delete(key string) {
	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		logging.Warn("redis cache: failed to delete key", "key", key, "error", err)
	}
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}

// Ping is used by the health check.
func (r *RedisCacheService) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
