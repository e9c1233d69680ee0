package middleware

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/relay/core/auth"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// AuthConfig configures the authentication middleware.
type AuthConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Backend authenticates requests. Required.
	Backend auth.Backend

	// Required rejects anonymous requests with 401.
	Required bool

	// Scheme and Realm build the WWW-Authenticate challenge.
	// Default to "Bearer" and "relay".
	Scheme string
	Realm  string

	// ErrorHandler builds the 401 fault. err is nil for anonymous requests
	// in Required mode.
	ErrorHandler func(req *request.Request, err error) error

	// Logger reports rejected credentials at debug level. Defaults to a discard logger.
	Logger *slog.Logger
}

// Auth attaches the user found by backend to the request. Requests without
// credentials stay anonymous; requests with bad credentials get 401.
func Auth(backend auth.Backend) handler.Middleware {
	return AuthWithConfig(AuthConfig{Backend: backend})
}

// RequireAuth is Auth that also rejects anonymous requests.
func RequireAuth(backend auth.Backend) handler.Middleware {
	return AuthWithConfig(AuthConfig{Backend: backend, Required: true})
}

// AuthWithConfig returns the authentication middleware configured by cfg.
// It panics when cfg.Backend is nil. Backend failures other than rejected
// credentials propagate as faults.
func AuthWithConfig(cfg AuthConfig) handler.Middleware {
	if cfg.Backend == nil {
		panic("auth middleware: backend is required")
	}

	if cfg.Scheme == "" {
		cfg.Scheme = "Bearer"
	}

	if cfg.Realm == "" {
		cfg.Realm = "relay"
	}

	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}

	challenge := fmt.Sprintf("%s realm=%q", cfg.Scheme, cfg.Realm)

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(req *request.Request, err error) error {
			fault := response.ErrUnauthorized.WithHeader("WWW-Authenticate", challenge)
			if err != nil {
				fault = fault.WithMessage("Invalid credentials")
			}
			return fault
		}
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		user, scope, err := cfg.Backend.Authenticate(req)
		switch {
		case auth.Rejected(err):
			cfg.Logger.DebugContext(req, "auth middleware: credentials rejected",
				logger.Path(req.Path()),
				logger.Error(err),
			)
			return nil, cfg.ErrorHandler(req, err)
		case err != nil:
			return nil, fmt.Errorf("auth middleware: %w", err)
		}

		if user != nil && user.IsAuthenticated() {
			req.SetUser(user, scope)
		} else if cfg.Required {
			return nil, cfg.ErrorHandler(req, nil)
		}
		return next()
	}
}
