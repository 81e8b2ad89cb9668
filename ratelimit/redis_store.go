package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// allowScript trims the sorted set to the window, then admits and records the
// attempt only while the count stays under the limit. Scores are unix millis.
var allowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisStore shares counters between instances through one sorted set per key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, error) {
	res, err := allowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		now.UnixMilli(),
		window.Milliseconds(),
		limit,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate limit script: %w", err)
	}
	return res == 1, nil
}
