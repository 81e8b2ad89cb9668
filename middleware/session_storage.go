package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
)

var _ fiber.Storage = (*RedisStorage)(nil)

// RedisStorage implements fiber.Storage on Redis so sessions survive restarts
// and are shared between instances. Every key is namespaced by prefix.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Get returns nil, nil for missing keys as fiber.Storage requires.
func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return r.client.Set(context.Background(), r.prefix+key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), r.prefix+key).Err()
}

// Reset removes only this storage's keys, never the whole database.
func (r *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op: the client is shared and closed by its owner.
func (r *RedisStorage) Close() error {
	return nil
}
