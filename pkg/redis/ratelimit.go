package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter implements sliding window rate limiting using Redis
// ⭐ SSOT: 프로세스 간 공유 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
	prefix string
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // 호출 대상 (e.g., "yahoo")
	Limit  int           // 윈도우 내 최대 요청 수
	Window time.Duration // 슬라이딩 윈도우 길이
}

// YahooRateLimit CLI / API / 스케줄러가 공유하는 Yahoo 호출 한도
// 초당 2회 (보수적, 429 회피)
var YahooRateLimit = RateLimitConfig{
	Key:    "yahoo",
	Limit:  2,
	Window: time.Second,
}

// minRetryDelay Wait 재시도 하한
const minRetryDelay = 10 * time.Millisecond

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client, prefix string) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: prefix,
	}
}

func (r *RateLimiter) key(cfg RateLimitConfig) string {
	return fmt.Sprintf("%s:ratelimit:%s", r.prefix, cfg.Key)
}

// Allow checks if a request is allowed under the rate limit
// Returns (allowed, remaining, error)
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (bool, int, error) {
	allowed, remaining, _, err := r.take(ctx, cfg)
	return allowed, remaining, err
}

// take 원자적으로 슬롯을 하나 점유. 거절 시 가장 오래된 요청이 윈도우를 벗어날 때까지 남은 시간도 반환
func (r *RateLimiter) take(ctx context.Context, cfg RateLimitConfig) (bool, int, time.Duration, error) {
	if !r.client.Enabled() {
		return true, cfg.Limit, 0, nil
	}

	now := time.Now().UnixMilli()
	// 같은 밀리초의 요청이 하나로 합쳐지지 않도록 member는 고유값
	res, err := slidingWindowScript.Run(ctx, r.client.Redis(), []string{r.key(cfg)},
		now,
		cfg.Window.Milliseconds(),
		cfg.Limit,
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, 0, fmt.Errorf("rate limit script failed: %w", err)
	}

	return res[0] == 1, int(res[1]), time.Duration(res[2]) * time.Millisecond, nil
}

// slidingWindowScript ZSET 기반 sliding window
// returns {allowed, remaining, retry_after_ms}
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window_ms = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
local count = redis.call('ZCARD', key)

if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window_ms)
	return {1, limit - count - 1, 0}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
local retry = window_ms
if oldest[2] then
	retry = tonumber(oldest[2]) + window_ms - now
end
return {0, 0, retry}
`)

// Wait blocks until a request is allowed or context is cancelled
func (r *RateLimiter) Wait(ctx context.Context, cfg RateLimitConfig) error {
	for {
		allowed, _, retryAfter, err := r.take(ctx, cfg)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}
		if retryAfter < minRetryDelay {
			retryAfter = minRetryDelay
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
