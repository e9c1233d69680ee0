package relay

import (
	"log/slog"

	"github.com/dmitrymomot/relay/core/exception"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/router"
)

// Option configures an App.
type Option func(*App)

// WithConfig replaces the configuration. Options applied later still win.
func WithConfig(cfg Config) Option {
	return func(a *App) { a.config = cfg }
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDebug sets the initial debug flag. It can be changed at runtime with
// SetDebug.
func WithDebug(debug bool) Option {
	return func(a *App) { a.config.Debug = debug }
}

// WithPrefix sets the prefix of the application router.
func WithPrefix(prefix string) Option {
	return func(a *App) { a.config.Prefix = prefix }
}

// WithRouter replaces the application router. Prefix and cache settings are
// then taken from r.
func WithRouter(r *router.Router) Option {
	return func(a *App) {
		if r != nil {
			a.router = r
		}
	}
}

// WithMiddleware appends global middleware.
func WithMiddleware(mws ...handler.Middleware) Option {
	return func(a *App) { a.middleware = append(a.middleware, mws...) }
}

// WithServerErrorHandler sets the renderer for untyped faults that reach the
// outermost chain link.
func WithServerErrorHandler(h exception.Handler) Option {
	return func(a *App) { a.serverErrorHandler = h }
}

// WithObserver installs a chain state observer on every request.
func WithObserver(o handler.Observer) Option {
	return func(a *App) { a.observer = o }
}
