package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/middleware"
	"github.com/dmitrymomot/relay/pkg/ratelimiter"
)

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (ratelimiter.Result, error) {
	return ratelimiter.Result{}, ratelimiter.ErrStoreUnavailable
}

func newLimiter(t *testing.T, limit int) *ratelimiter.MemoryLimiter {
	t.Helper()
	l, err := ratelimiter.NewMemoryLimiter(ratelimiter.Config{Limit: limit, Interval: time.Minute})
	require.NoError(t, err)
	return l
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("allows then rejects per client", func(t *testing.T) {
		t.Parallel()

		mw := middleware.RateLimit(newLimiter(t, 2))
		from := func(ip string) *request.Request {
			return newReq(http.MethodGet, "/", "X-Real-IP", ip)
		}

		out := render(t, from("10.0.0.1"), okText, mw)
		assert.Equal(t, http.StatusOK, out.Status())
		assert.Equal(t, "2", out.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", out.Header().Get("X-RateLimit-Remaining"))
		reset, err := strconv.ParseInt(out.Header().Get("X-RateLimit-Reset"), 10, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, reset, time.Now().Unix())

		out = render(t, from("10.0.0.1"), okText, mw)
		assert.Equal(t, http.StatusOK, out.Status())
		assert.Equal(t, "0", out.Header().Get("X-RateLimit-Remaining"))

		out = render(t, from("10.0.0.1"), okText, mw)
		assert.Equal(t, http.StatusTooManyRequests, out.Status())
		retry, err := strconv.Atoi(out.Header().Get("Retry-After"))
		require.NoError(t, err)
		assert.InDelta(t, 30, retry, 1)
		assert.Equal(t, "0", out.Header().Get("X-RateLimit-Remaining"), "limit headers survive the fault")

		out = render(t, from("10.0.0.2"), okText, mw)
		assert.Equal(t, http.StatusOK, out.Status())
	})

	t.Run("custom key and headers off", func(t *testing.T) {
		t.Parallel()

		mw := middleware.RateLimitWithConfig(middleware.RateLimitConfig{
			Limiter:        newLimiter(t, 1),
			KeyExtractor:   func(req *request.Request) string { return req.Header("X-Api-Key") },
			DisableHeaders: true,
		})

		out, err := run(newReq(http.MethodGet, "/", "X-Api-Key", "k1", "X-Real-IP", "1.1.1.1"), okText, mw)
		require.NoError(t, err)
		assert.Empty(t, out.Header().Get("X-RateLimit-Limit"))

		_, err = run(newReq(http.MethodGet, "/", "X-Api-Key", "k1", "X-Real-IP", "2.2.2.2"), okText, mw)
		assert.ErrorIs(t, err, response.ErrTooManyRequests)

		_, err = run(newReq(http.MethodGet, "/", "X-Api-Key", "k2"), okText, mw)
		assert.NoError(t, err)
	})

	t.Run("limiter failures are untyped", func(t *testing.T) {
		t.Parallel()

		_, err := run(newReq(http.MethodGet, "/"), okText, middleware.RateLimit(brokenLimiter{}))
		require.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
		var sc response.StatusCoder
		assert.False(t, errors.As(err, &sc))

		out := render(t, newReq(http.MethodGet, "/"), okText, middleware.RateLimit(brokenLimiter{}))
		assert.Equal(t, http.StatusInternalServerError, out.Status())
	})

	t.Run("requires a limiter", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { middleware.RateLimit(nil) })
	})
}
