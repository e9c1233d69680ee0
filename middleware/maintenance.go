package middleware

import (
	"slices"
	"strconv"
	"time"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// MaintenanceConfig configures the maintenance middleware.
type MaintenanceConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Enabled is evaluated per request. Required.
	Enabled func() bool

	// RetryAfter is sent as the Retry-After header when positive.
	RetryAfter time.Duration

	// Message replaces the default fault message.
	Message string

	// AllowIPs still reach the handler during maintenance.
	AllowIPs []string
}

// Maintenance rejects every request with 503 while enabled reports true.
func Maintenance(enabled func() bool) handler.Middleware {
	return MaintenanceWithConfig(MaintenanceConfig{Enabled: enabled})
}

// MaintenanceWithConfig returns the maintenance middleware configured by cfg.
// It panics when cfg.Enabled is nil.
func MaintenanceWithConfig(cfg MaintenanceConfig) handler.Middleware {
	if cfg.Enabled == nil {
		panic("maintenance middleware: enabled func is required")
	}

	if cfg.Message == "" {
		cfg.Message = "Service is under maintenance"
	}

	fault := response.ErrServiceUnavailable.WithMessage(cfg.Message)
	if cfg.RetryAfter > 0 {
		fault = fault.WithHeader("Retry-After", strconv.Itoa(int(cfg.RetryAfter.Seconds())))
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}
		if !cfg.Enabled() || slices.Contains(cfg.AllowIPs, req.ClientIP()) {
			return next()
		}
		return nil, fault
	}
}
