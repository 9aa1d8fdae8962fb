package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 固定窗口：hash 里存 count 和 reset（毫秒时间戳）。
// key 在 reset 之后自动过期，过期后再来的请求等同于第一次出现。
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "count", "reset")
local count = tonumber(data[1])
local reset = tonumber(data[2])
if count == nil or reset == nil or now > reset then
  count = 0
  reset = now + window
end

if count >= limit then
  return {0, count, reset}
end

count = count + 1
redis.call("HSET", key, "count", count, "reset", reset)
redis.call("PEXPIREAT", key, reset + 1)
return {1, count, reset}
`)

// RedisStore 多实例部署时共享计数。
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Take(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.prefix + key},
		now.UnixMilli(), window.Milliseconds(), limit).Result()
	if err != nil {
		return Decision{}, err
	}

	arr, ok := res.([]any)
	if !ok || len(arr) < 3 {
		return Decision{}, fmt.Errorf("unexpected redis eval result: %T %v", res, res)
	}
	allowed, _ := arr[0].(int64)
	count, _ := arr[1].(int64)
	resetMS, _ := arr[2].(int64)

	resetAt := time.UnixMilli(resetMS)
	d := Decision{
		Allowed:   allowed == 1,
		Limit:     limit,
		Remaining: max(limit-int(count), 0),
		ResetAt:   resetAt,
	}
	if !d.Allowed {
		d.Remaining = 0
		d.RetryAfter = resetAt.Sub(now)
	}
	return d, nil
}
