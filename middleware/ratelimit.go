package middleware

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/pkg/ratelimiter"
)

// RateLimitConfig configures the rate limit middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Limiter decides each request. Required.
	Limiter ratelimiter.RateLimiter

	// KeyExtractor groups requests. Defaults to the client IP.
	KeyExtractor func(req *request.Request) string

	// ErrorHandler builds the fault for rejected requests. Defaults to 429
	// with a Retry-After header.
	ErrorHandler func(req *request.Request, result ratelimiter.Result) error

	// DisableHeaders omits the X-RateLimit-* headers.
	DisableHeaders bool
}

// RateLimit limits requests per client IP with limiter.
func RateLimit(limiter ratelimiter.RateLimiter) handler.Middleware {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter})
}

// RateLimitWithConfig returns the rate limit middleware configured by cfg.
// It panics when cfg.Limiter is nil. Limiter failures propagate as faults.
func RateLimitWithConfig(cfg RateLimitConfig) handler.Middleware {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}

	if cfg.KeyExtractor == nil {
		cfg.KeyExtractor = func(req *request.Request) string {
			return req.ClientIP()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(req *request.Request, result ratelimiter.Result) error {
			seconds := retryAfterSeconds(result)
			return response.ErrTooManyRequests.
				WithDetails(map[string]any{"retry_after": seconds}).
				WithHeader("Retry-After", strconv.Itoa(seconds))
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		result, err := cfg.Limiter.Allow(req, cfg.KeyExtractor(req))
		if err != nil {
			return nil, fmt.Errorf("ratelimit: %w", err)
		}

		if !cfg.DisableHeaders {
			res.SetHeader("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			res.SetHeader("X-RateLimit-Remaining", strconv.Itoa(max(0, result.Remaining)))
			res.SetHeader("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		}

		if !result.Allowed {
			return nil, cfg.ErrorHandler(req, result)
		}

		out, err := next()
		if out != nil && out != res && !cfg.DisableHeaders {
			for _, h := range []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"} {
				out.SetHeader(h, res.Header().Get(h))
			}
		}
		return out, err
	}
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(result ratelimiter.Result) int {
	return max(1, int(math.Ceil(result.RetryAfter.Seconds())))
}
