package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/varcalc/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Ping(context.Background()))
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")

	// When Redis is disabled, all requests should be allowed
	allowed, remaining, err := limiter.Allow(context.Background(), YahooRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, YahooRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), YahooRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", []float64{0.01}, TTLShort))

	var result []float64
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	asOf := time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "returns:INFY.NS:252:2024-01-15", ReturnSeriesKey("infy.ns", 252, asOf))
	assert.Equal(t, "run:latest:TCS.BO", RunKey("TCS.BO"))
}

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("REDIS_ENABLED") != "true" {
		t.Skip("REDIS_ENABLED not set, skipping integration test")
	}
	cfg, err := config.Load()
	require.NoError(t, err)

	client, err := New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_RoundTrip(t *testing.T) {
	client := integrationClient(t)
	cache := NewCache(client, "varcalc-test")
	ctx := context.Background()

	key := ReturnSeriesKey("TEST.NS", 10, time.Now())
	require.NoError(t, cache.Set(ctx, key, []float64{0.01, -0.02}, time.Minute))
	t.Cleanup(func() { _ = cache.Delete(ctx, key) })

	var got []float64
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []float64{0.01, -0.02}, got)
}

func TestRateLimiter_Enforces(t *testing.T) {
	client := integrationClient(t)
	limiter := NewRateLimiter(client, "varcalc-test-"+time.Now().Format("150405.000"))
	cfg := RateLimitConfig{Key: "burst", Limit: 2, Window: time.Minute}
	ctx := context.Background()

	allowed, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)

	// 같은 밀리초 연속 호출도 각각 집계
	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)

	_, _, retryAfter, err := limiter.take(ctx, cfg)
	require.NoError(t, err)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, cfg.Window)
}

func TestRateLimiter_WaitCancelled(t *testing.T) {
	client := integrationClient(t)
	limiter := NewRateLimiter(client, "varcalc-test-"+time.Now().Format("150405.000"))
	cfg := RateLimitConfig{Key: "wait", Limit: 1, Window: time.Minute}

	require.NoError(t, limiter.Wait(context.Background(), cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, limiter.Wait(ctx, cfg), context.DeadlineExceeded)
}
