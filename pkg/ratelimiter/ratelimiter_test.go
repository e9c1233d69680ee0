package ratelimiter_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/pkg/ratelimiter"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  ratelimiter.Config
		ok   bool
	}{
		{"valid", ratelimiter.Config{Limit: 1, Interval: time.Second}, true},
		{"zero limit", ratelimiter.Config{Interval: time.Second}, false},
		{"zero interval", ratelimiter.Config{Limit: 1}, false},
		{"negative burst", ratelimiter.Config{Limit: 1, Interval: time.Second, Burst: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}

	_, err := ratelimiter.NewMemoryLimiter(ratelimiter.Config{})
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}

func TestMemoryLimiter(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	l, err := ratelimiter.NewMemoryLimiter(
		ratelimiter.Config{Limit: 2, Interval: time.Minute},
		ratelimiter.WithClock(clk.Now),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Limit)
	assert.Equal(t, 1, res.Remaining)
	assert.True(t, res.ResetAt.After(clk.Now()))
	assert.Zero(t, res.RetryAfter)

	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	res, _ = l.Allow(ctx, "a")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.InDelta(t, float64(30*time.Second), float64(res.RetryAfter), float64(time.Millisecond))

	other, _ := l.Allow(ctx, "b")
	assert.True(t, other.Allowed, "keys are independent")

	clk.Advance(31 * time.Second)
	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed, "rejected calls do not consume tokens")
	assert.Equal(t, 2, l.Len())

	l.Reset("a")
	assert.Equal(t, 1, l.Len())
}

func TestMemoryLimiterEvictsLeastRecentKeys(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	l, err := ratelimiter.NewMemoryLimiter(
		ratelimiter.Config{Limit: 1, Interval: time.Hour},
		ratelimiter.WithClock(clk.Now),
		ratelimiter.WithMaxKeys(1),
	)
	require.NoError(t, err)
	ctx := context.Background()

	res, _ := l.Allow(ctx, "a")
	assert.True(t, res.Allowed)
	res, _ = l.Allow(ctx, "a")
	assert.False(t, res.Allowed)

	_, _ = l.Allow(ctx, "b")
	assert.Equal(t, 1, l.Len())

	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed, "evicted key starts over")
}

func TestMemoryLimiterBurst(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	l, err := ratelimiter.NewMemoryLimiter(
		ratelimiter.Config{Limit: 1, Interval: time.Second, Burst: 5},
		ratelimiter.WithClock(clk.Now),
	)
	require.NoError(t, err)

	allowed := 0
	for range 10 {
		res, err := l.Allow(context.Background(), "k")
		require.NoError(t, err)
		if res.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	t.Parallel()

	clk := &clock{now: time.Now()}
	l, err := ratelimiter.NewMemoryLimiter(
		ratelimiter.Config{Limit: 50, Interval: time.Hour},
		ratelimiter.WithClock(clk.Now),
	)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 100 {
		wg.Go(func() {
			res, _ := l.Allow(context.Background(), "shared")
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		})
	}
	wg.Wait()
	assert.Equal(t, 50, allowed)
}

func redisAvailable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:6379",
		DialTimeout: 100 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLimiter(t *testing.T) {
	client := redisAvailable(t)
	ctx := context.Background()
	prefix := "relay:test:" + strings.ReplaceAll(t.Name(), "/", ":") + ":"

	l, err := ratelimiter.NewRedisLimiter(client, ratelimiter.Config{Limit: 2, Interval: time.Minute}, prefix)
	require.NoError(t, err)
	require.NoError(t, l.Reset(ctx, "a"))
	t.Cleanup(func() { _ = l.Reset(ctx, "a") })

	res, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed)

	res, _ = l.Allow(ctx, "a")
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)
	assert.LessOrEqual(t, res.RetryAfter, time.Minute)

	require.NoError(t, l.Reset(ctx, "a"))
	res, _ = l.Allow(ctx, "a")
	assert.True(t, res.Allowed)
}

func TestNewRedisLimiterRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := ratelimiter.NewRedisLimiter(nil, ratelimiter.Config{Limit: 1, Interval: time.Second}, "")
	assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
}
