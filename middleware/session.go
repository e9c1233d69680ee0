package middleware

import (
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/session"
)

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(req *request.Request) bool

	// Manager loads and commits sessions. Required.
	Manager *session.Manager

	// Logger reports backend failures. Defaults to a discard logger.
	Logger *slog.Logger
}

// Session loads the session named by the session cookie before the rest of
// the chain and commits it afterwards.
func Session(manager *session.Manager) handler.Middleware {
	return SessionWithConfig(SessionConfig{Manager: manager})
}

// SessionWithConfig returns the session middleware configured by cfg.
// It panics when cfg.Manager is nil.
//
// The session lives on the request (session.FromRequest). A session that
// cannot be loaded is replaced by a fresh one. A session that cannot be
// saved fails the request.
func SessionWithConfig(cfg SessionConfig) handler.Middleware {
	if cfg.Manager == nil {
		panic("session middleware: manager is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		if cfg.Skip != nil && cfg.Skip(req) {
			return next()
		}

		id, _ := req.Cookie(cfg.Manager.CookieName())
		sess, err := cfg.Manager.Load(req, id)
		if err != nil {
			cfg.Logger.ErrorContext(req, "session middleware: failed to load session", logger.Error(err))
			if sess, err = session.New(); err != nil {
				return nil, err
			}
		}
		session.Attach(req, sess)

		out, err := next()

		// Faults are rendered later from scratch; the exception layer copies
		// cookies queued on the shared response onto that rendering.
		target := out
		if err != nil || target == nil {
			target = res
		}
		if cerr := cfg.Manager.Commit(req, sess, target); cerr != nil {
			cfg.Logger.ErrorContext(req, "session middleware: failed to save session", logger.Error(cerr))
			if err != nil {
				return nil, err
			}
			if out != nil {
				_ = out.Close()
			}
			return nil, fmt.Errorf("session middleware: %w", cerr)
		}
		return out, err
	}
}
