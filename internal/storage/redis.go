package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each namespace as one hash: <prefix>:<namespace>.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisBackend(rdb *redis.Client, prefix string) (*RedisBackend, error) {
	if rdb == nil {
		return nil, errors.New("storage: redis client is nil")
	}
	if prefix == "" {
		prefix = "console"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix}, nil
}

func (r *RedisBackend) hashKey(namespace string) string {
	return r.prefix + ":" + namespace
}

func (r *RedisBackend) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	b, err := r.rdb.HGet(ctx, r.hashKey(namespace), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis hget: %w", err)
	}
	return b, nil
}

func (r *RedisBackend) Set(ctx context.Context, namespace, key string, value []byte) error {
	if err := r.rdb.HSet(ctx, r.hashKey(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("storage: redis hset: %w", err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, namespace, key string) error {
	if err := r.rdb.HDel(ctx, r.hashKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("storage: redis hdel: %w", err)
	}
	return nil
}

func (r *RedisBackend) Clear(ctx context.Context, namespace string) error {
	if err := r.rdb.Del(ctx, r.hashKey(namespace)).Err(); err != nil {
		return fmt.Errorf("storage: redis del: %w", err)
	}
	return nil
}
