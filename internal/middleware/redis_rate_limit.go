package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/jwcloud365/SimpleWebDBApp/internal/service"

	"github.com/redis/go-redis/v9"
)

// 令牌桶：KEYS[1] 为桶 key，ARGV 依次为 rps、burst、当前毫秒时间戳
// 返回 1 表示放行，0 表示拒绝
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rps = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
  tokens = burst
  ts = now
end

local elapsed = math.max(0, now - ts) / 1000
tokens = math.min(burst, tokens + elapsed * rps)

local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
local ttl = 60000
if rps > 0 then
  ttl = math.ceil(burst / rps * 1000) + 1000
end
redis.call("PEXPIRE", key, ttl)
return allowed
`)

func redisRateKey(prefix, ip string) string {
	return service.RedisKey(prefix, "ratelimit", "upload", ip)
}

// allowByRedisRateLimit 使用 Redis 令牌桶判断本次请求是否放行
// burst 非正数时视为不限流，rps 为 0 时桶不再补充（与进程内 rate.Limiter 一致）
func allowByRedisRateLimit(ctx context.Context, client *redis.Client, key string, rps float64, burst int) (bool, error) {
	if client == nil || burst <= 0 {
		return true, nil
	}

	if rps < 0 {
		rps = 0
	}

	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	res, err := tokenBucketScript.Run(ctx, client, []string{key}, rps, burst, time.Now().UnixMilli()).Int()
	if err != nil {
		return false, fmt.Errorf("redis rate limit failed: %w", err)
	}
	return res == 1, nil
}
