package health

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/lifecycle"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Readiness runs every check in order and answers "READY", or 503 with the
// first failure logged.
func Readiness(log *slog.Logger, checks ...Check) handler.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}

	return func(req *request.Request, res *response.Response) (*response.Response, error) {
		for _, check := range checks {
			if err := check(req); err != nil {
				log.ErrorContext(req, "Readiness check failed",
					logger.Component("health"),
					logger.Error(err),
				)
				return nil, response.ErrServiceUnavailable.WithMessage("Service not ready")
			}
		}
		return res.Text("READY"), nil
	}
}

// Started fails until m reached the running state, and again once shutdown began.
func Started(m *lifecycle.Manager) Check {
	return func(context.Context) error {
		if state := m.State(); state != lifecycle.Running {
			return fmt.Errorf("%w: %s", ErrNotRunning, state)
		}
		return nil
	}
}
