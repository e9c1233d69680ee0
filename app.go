package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/relay/core/exception"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/lifecycle"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/router"
	"github.com/dmitrymomot/relay/core/transport"
)

// App owns the route table, the global middleware, the fault dispatcher and
// the lifecycle manager.
type App struct {
	config             Config
	logger             *slog.Logger
	router             *router.Router
	exceptions         *exception.Dispatcher
	lifecycle          *lifecycle.Manager
	serverErrorHandler exception.Handler
	observer           handler.Observer
	debug              atomic.Bool

	mu         sync.RWMutex
	middleware []handler.Middleware

	httpOnce    sync.Once
	httpHandler http.Handler
}

// New creates an application.
func New(opts ...Option) *App {
	a := &App{
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.debug.Store(a.config.Debug)
	if a.router == nil {
		a.router = router.New(
			router.WithPrefix(a.config.Prefix),
			router.WithLogger(a.logger),
			router.WithMatchCache(a.config.MatchCacheSize),
		)
	}
	a.exceptions = exception.NewDispatcher(exception.WithLogger(a.logger))
	a.lifecycle = lifecycle.New(lifecycle.WithLogger(a.logger))
	for _, mw := range a.middleware {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
	}
	return a
}

// Config returns the configuration the app was built with.
func (a *App) Config() Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Router returns the application router.
func (a *App) Router() *router.Router { return a.router }

// Exceptions returns the fault dispatcher.
func (a *App) Exceptions() *exception.Dispatcher { return a.exceptions }

// Lifecycle returns the lifecycle manager.
func (a *App) Lifecycle() *lifecycle.Manager { return a.lifecycle }

// Debug reports the current debug flag.
func (a *App) Debug() bool { return a.debug.Load() }

// SetDebug changes the debug flag. It takes effect on the next request.
func (a *App) SetDebug(debug bool) { a.debug.Store(debug) }

// Use appends global middleware. Middleware run in registration order.
func (a *App) Use(mws ...handler.Middleware) {
	for _, mw := range mws {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.middleware = append(a.middleware, mws...)
}

// Middleware returns the global middleware in registration order.
func (a *App) Middleware() []handler.Middleware {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]handler.Middleware(nil), a.middleware...)
}

// HandleStatus registers an exception handler for typed faults with status.
func (a *App) HandleStatus(status int, h exception.Handler) {
	a.exceptions.HandleStatus(status, h)
}

// HandleError registers an exception handler for a sentinel error.
func (a *App) HandleError(target error, h exception.Handler) {
	a.exceptions.HandleError(target, h)
}

// OnStartup registers a startup hook.
func (a *App) OnStartup(fn lifecycle.Hook) error { return a.lifecycle.OnStartup(fn) }

// OnShutdown registers a shutdown hook.
func (a *App) OnShutdown(fn lifecycle.Hook) error { return a.lifecycle.OnShutdown(fn) }

// Startup runs the startup hooks. Requests must not be served when it fails.
func (a *App) Startup(ctx context.Context) error { return a.lifecycle.Startup(ctx) }

// Shutdown runs the shutdown hooks.
func (a *App) Shutdown(ctx context.Context) error { return a.lifecycle.Shutdown(ctx) }

// Dispatch runs the full chain for req and always returns a response.
func (a *App) Dispatch(req *request.Request, res *response.Response) *response.Response {
	m := a.router.Match(req.Method(), req.Path())

	var (
		h        handler.HandlerFunc
		routeMws []handler.Middleware
	)
	switch m.Status {
	case router.Found:
		req.SetParams(m.Params)
		req.SetRoutePath(m.Route.Path())
		h = m.Route.Handler()
		routeMws = m.Route.Middleware()
	case router.MethodNotAllowed:
		h = a.methodNotAllowed(m.Allowed)
	default:
		h = a.notFound
	}

	global := a.Middleware()
	links := make([]handler.Middleware, 0, len(global)+len(routeMws)+2)
	links = append(links, exception.ServerErrors(exception.ServerErrorsConfig{
		Logger:     a.logger,
		Debug:      a.Debug,
		Handler:    a.serverErrorHandler,
		Dispatcher: a.exceptions,
		Routes:     a.routeListing,
	}))
	links = append(links, global...)
	links = append(links, routeMws...)
	links = append(links, exception.MiddlewareWithConfig(exception.MiddlewareConfig{
		Dispatcher: a.exceptions,
		Debug:      a.Debug,
		Routes:     a.routeListing,
	}))

	chain := handler.NewChain(h, links...)
	if a.observer != nil {
		chain = chain.WithObserver(a.observer)
	}

	out, err := chain.Run(req, res)
	if err != nil {
		// ServerErrors never fails; reaching here means the chain itself broke.
		a.logger.ErrorContext(req, "chain returned an error", logger.Error(err))
		return exception.InternalError()
	}
	if out == nil {
		return res
	}
	return out
}

func (a *App) notFound(*request.Request, *response.Response) (*response.Response, error) {
	return nil, response.ErrNotFound
}

func (a *App) routeListing() []string {
	routes := a.router.Routes()
	lines := make([]string, 0, len(routes))
	for _, rt := range routes {
		lines = append(lines, rt.String())
	}
	return lines
}

func (a *App) methodNotAllowed(allowed []string) handler.HandlerFunc {
	return func(*request.Request, *response.Response) (*response.Response, error) {
		return nil, response.ErrMethodNotAllowed.WithHeader("Allow", strings.Join(allowed, ", "))
	}
}

// Serve implements transport.App.
func (a *App) Serve(ctx context.Context, scope *transport.Scope, receive transport.Receive, send transport.Send) error {
	if scope.Type != "" && scope.Type != "http" {
		return fmt.Errorf("%w: %q", ErrUnsupportedScope, scope.Type)
	}

	req := request.New(ctx, scope, receive)
	res := response.New()
	out := a.Dispatch(req, res)
	defer func() {
		_ = out.Close()
		if out != res {
			_ = res.Close()
		}
	}()

	guard := transport.NewGuard(send)
	err := out.Write(ctx, guard.Send)
	if err == nil {
		return nil
	}

	if guard.Started() || errors.Is(err, transport.ErrDisconnected) || ctx.Err() != nil {
		return err
	}

	// Nothing reached the client yet: a typed fault keeps its status, anything
	// else becomes the generic 500.
	a.logger.ErrorContext(ctx, "response write failed",
		logger.Method(scope.Method),
		logger.Path(scope.Path),
		logger.Error(err),
	)
	fallback := a.writeFault(req, err)
	defer func() {
		if fallback != out && fallback != res {
			_ = fallback.Close()
		}
	}()
	if ferr := fallback.Write(ctx, guard.Send); ferr != nil {
		if guard.Started() {
			return ferr
		}
		return exception.InternalError().Write(ctx, guard.Send)
	}
	return nil
}

// writeFault renders a fault raised while writing a response that had not
// started yet.
func (a *App) writeFault(req *request.Request, err error) *response.Response {
	var sc response.StatusCoder
	if !errors.As(err, &sc) {
		return exception.InternalError()
	}
	if out, ok := a.exceptions.Dispatch(req, response.New(), err); ok && out != nil {
		return out
	}
	return exception.Default(req, err)
}

// ServeHTTP implements http.Handler through the transport adapter.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.httpOnce.Do(func() {
		a.httpHandler = transport.Handler(a,
			transport.WithLogger(a.logger),
			transport.WithChunkSize(a.config.BodyChunkSize),
		)
	})
	a.httpHandler.ServeHTTP(w, r)
}
