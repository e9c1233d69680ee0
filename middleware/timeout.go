package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// TimeoutConfig configures the timeout middleware.
type TimeoutConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Timeout bounds the rest of the chain. Defaults to 30s.
	Timeout time.Duration

	// ErrorHandler builds the fault returned once the deadline passed.
	// Defaults to 504.
	ErrorHandler func(req *request.Request) error
}

// Timeout attaches a deadline of d to the request context.
func Timeout(d time.Duration) handler.Middleware {
	return TimeoutWithConfig(TimeoutConfig{Timeout: d})
}

// TimeoutWithConfig returns the timeout middleware configured by cfg.
//
// The deadline is cooperative: handlers observe it through req.Context()
// and nothing is interrupted. When the chain returns after the deadline,
// its result is discarded and the timeout fault is returned instead.
func TimeoutWithConfig(cfg TimeoutConfig) handler.Middleware {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(req *request.Request) error {
			return response.ErrGatewayTimeout.WithMessage("Request timed out")
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		parent := req.Context()
		ctx, cancel := context.WithTimeout(parent, cfg.Timeout)
		defer cancel()

		req.SetContext(ctx)
		defer req.SetContext(parent)

		out, err := next()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, err
		}
		if parent.Err() != nil {
			// The client went away first; keep whatever the chain reported.
			return out, err
		}

		if out != nil {
			_ = out.Close()
		}
		return nil, cfg.ErrorHandler(req)
	}
}
