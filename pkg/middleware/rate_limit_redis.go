package middleware

import (
	"context"
	"fmt"
	"roombook/pkg/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "ratelimit"

// TokenBucket describes a bucket holding Capacity tokens that regains one
// token every RefillEvery. Idle buckets expire after TTL.
type TokenBucket struct {
	Capacity    int
	RefillEvery time.Duration
	TTL         time.Duration
}

// TokenBucketStore takes one token from the bucket stored under key.
type TokenBucketStore interface {
	Take(ctx context.Context, key string, bucket TokenBucket, now time.Time) (RateLimitDecision, error)
}

// KEYS[1] bucket key
// ARGV now_ms, capacity, refill_interval_ms, ttl_ms
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals)
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('PEXPIRE', key, ttl_ms)

return { allowed, tokens, retry_after_ms }
`)

type RedisTokenBucketStore struct {
	rdb redis.Scripter
}

func NewRedisTokenBucketStore(rdb redis.Scripter) *RedisTokenBucketStore {
	return &RedisTokenBucketStore{rdb: rdb}
}

func (s *RedisTokenBucketStore) Take(ctx context.Context, key string, bucket TokenBucket, now time.Time) (RateLimitDecision, error) {
	vals, err := tokenBucketScript.Run(ctx, s.rdb, []string{key},
		now.UnixMilli(),
		bucket.Capacity,
		bucket.RefillEvery.Milliseconds(),
		bucket.TTL.Milliseconds(),
	).Result()
	if err != nil {
		return RateLimitDecision{}, fmt.Errorf("token bucket script: %w", err)
	}
	return parseTokenBucketResult(vals)
}

func parseTokenBucketResult(vals any) (RateLimitDecision, error) {
	arr, ok := vals.([]any)
	if !ok || len(arr) != 3 {
		return RateLimitDecision{}, fmt.Errorf("unexpected token bucket result: %#v", vals)
	}

	allowed, ok1 := arr[0].(int64)
	retryMs, ok2 := arr[2].(int64)
	if !ok1 || !ok2 {
		return RateLimitDecision{}, fmt.Errorf("unexpected token bucket result: %#v", vals)
	}

	return RateLimitDecision{
		Allowed:    allowed == 1,
		RetryAfter: time.Duration(retryMs) * time.Millisecond,
	}, nil
}

// TokenBucketRateLimiter keeps its buckets in a shared store so every
// replica of a service spends the same budget. Store failures let the
// request through.
type TokenBucketRateLimiter struct {
	store  TokenBucketStore
	bucket TokenBucket
	log    *logger.Logger
	now    func() time.Time
}

func NewTokenBucketRateLimiter(store TokenBucketStore, limit int, window time.Duration, log *logger.Logger) *TokenBucketRateLimiter {
	if limit < 1 {
		limit = 1
	}
	refill := window / time.Duration(limit)
	if refill < time.Millisecond {
		refill = time.Millisecond
	}

	return &TokenBucketRateLimiter{
		store: store,
		bucket: TokenBucket{
			Capacity:    limit,
			RefillEvery: refill,
			TTL:         2 * window,
		},
		log: log,
		now: time.Now,
	}
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration, log *logger.Logger) *TokenBucketRateLimiter {
	return NewTokenBucketRateLimiter(NewRedisTokenBucketStore(rdb), limit, window, log)
}

func (l *TokenBucketRateLimiter) Allow(ctx context.Context, key string) RateLimitDecision {
	if key == "" {
		return RateLimitDecision{Allowed: true}
	}

	decision, err := l.store.Take(ctx, rateLimitKeyPrefix+":"+key, l.bucket, l.now())
	if err != nil {
		l.log.Warn("Rate limit store unavailable, allowing request", "key", key, "error", err)
		return RateLimitDecision{Allowed: true}
	}
	return decision
}

func (l *TokenBucketRateLimiter) Stop() {}
