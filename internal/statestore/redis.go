package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

type RedisBackend struct {
	redisClient *redis.Client
}

func NewRedisBackend(redisClient *redis.Client) *RedisBackend {
	return &RedisBackend{
		redisClient: redisClient,
	}
}

func (r *RedisBackend) Name() string {
	return "redis"
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	blob, err := r.redisClient.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get [%s]: %w", key, err)
	}
	return blob, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, key string, blob []byte) error {
	if err := r.redisClient.Set(ctx, key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set [%s]: %w", key, err)
	}
	return nil
}

func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.redisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del [%s]: %w", key, err)
	}
	return nil
}
