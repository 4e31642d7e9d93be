package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KEYS[1]: sorted set of request timestamps
// ARGV: window in ms, limit, now in ms, request id
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)

if redis.call('ZCARD', key) < limit then
    redis.call('ZADD', key, now, ARGV[4])
    redis.call('PEXPIRE', key, window)
    return 1
end
return 0
`)

// Redis shares the sliding window between instances through a sorted set per key.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

var _ Limiter = (*Redis)(nil)

func NewRedis(client *redis.Client, limit int, window time.Duration) *Redis {
	return &Redis{client: client, limit: limit, window: window, prefix: "ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	result, err := slidingWindowScript.Run(
		ctx,
		r.client,
		[]string{r.prefix + key},
		r.window.Milliseconds(),
		r.limit,
		time.Now().UnixMilli(),
		uuid.NewString(),
	).Int()
	if err != nil {
		return true, fmt.Errorf("rate limit script: %w", err)
	}

	return result == 1, nil
}
