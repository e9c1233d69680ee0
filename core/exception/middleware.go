package exception

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/dmitrymomot/relay/core/cookie"
	"github.com/dmitrymomot/relay/core/handler"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/transport"
)

// MiddlewareConfig configures the exception middleware.
type MiddlewareConfig struct {
	// Dispatcher holds the registered exception handlers. Defaults to an
	// empty dispatcher.
	Dispatcher *Dispatcher

	// Debug is evaluated per request. Together with Routes it enables the
	// route listing for 404 faults no handler claimed.
	Debug func() bool

	// Routes lists the registered routes for the debug 404 page.
	Routes func() []string
}

// Middleware resolves faults raised by the handler. Registered handlers win;
// typed HTTP faults without one get the default body. Untyped faults and
// client disconnects keep propagating.
func Middleware(d *Dispatcher) handler.Middleware {
	return MiddlewareWithConfig(MiddlewareConfig{Dispatcher: d})
}

// MiddlewareWithConfig is Middleware with explicit configuration.
func MiddlewareWithConfig(cfg MiddlewareConfig) handler.Middleware {
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = NewDispatcher()
	}
	if cfg.Debug == nil {
		cfg.Debug = func() bool { return false }
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		out, err := next()
		if err == nil {
			return out, nil
		}
		if errors.Is(err, transport.ErrDisconnected) {
			return nil, err
		}
		if out, ok := cfg.Dispatcher.Dispatch(req, res, err); ok {
			return carryHeaders(res, out), nil
		}
		if isTyped(err) {
			return carryHeaders(res, renderTyped(req, err, cfg.Debug, cfg.Routes)), nil
		}
		return nil, err
	}
}

// ServerErrorsConfig configures the outermost fault handler.
type ServerErrorsConfig struct {
	// Logger receives every fault. Defaults to a discard logger.
	Logger *slog.Logger

	// Debug is evaluated per request. A true result renders the trace page
	// for untyped faults.
	Debug func() bool

	// Handler renders untyped faults instead of the built-in bodies.
	Handler Handler

	// Dispatcher is consulted before any default rendering.
	Dispatcher *Dispatcher

	// Routes lists the registered routes for the debug 404 page.
	Routes func() []string
}

// ServerErrors is the last line of defense. It never returns an error.
func ServerErrors(cfg ServerErrorsConfig) handler.Middleware {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Debug == nil {
		cfg.Debug = func() bool { return false }
	}

	return func(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
		out, err := next()
		if err == nil {
			if out == nil {
				out = res
			}
			return out, nil
		}
		return carryHeaders(res, render(cfg, req, res, err)), nil
	}
}

func render(cfg ServerErrorsConfig, req *request.Request, res *response.Response, err error) *response.Response {
	if errors.Is(err, transport.ErrDisconnected) {
		cfg.Logger.DebugContext(req, "client disconnected",
			logger.Method(req.Method()),
			logger.Path(req.Path()),
			logger.Error(err),
		)
		return response.Text(response.StatusClientClosedRequest, "Client Closed Request")
	}

	typed := isTyped(err)
	logFault(cfg.Logger, req, err, typed)

	if cfg.Dispatcher != nil {
		if out, ok := cfg.Dispatcher.Dispatch(req, res, err); ok {
			return out
		}
	}
	if typed {
		return renderTyped(req, err, cfg.Debug, cfg.Routes)
	}
	if cfg.Handler != nil {
		return runTerminal(cfg.Logger, cfg.Handler, req, res, err)
	}
	if cfg.Debug() {
		return DebugPage(req, err)
	}
	return InternalError()
}

// carryHeaders copies headers and cookies middleware set on the shared
// response onto a fault response built from scratch. What the fault response
// sets itself wins.
func carryHeaders(res, out *response.Response) *response.Response {
	if out == nil || out == res || res == nil {
		return out
	}
	for k, vs := range res.Header() {
		if k == "Content-Type" || k == "Content-Length" {
			continue
		}
		if _, ok := out.Header()[k]; ok {
			continue
		}
		for _, v := range vs {
			out.AddHeader(k, v)
		}
	}

	set := make(map[string]bool, len(out.Cookies()))
	for _, c := range out.Cookies() {
		set[c.Name] = true
	}
	for _, c := range res.Cookies() {
		if set[c.Name] {
			continue
		}
		opts := c.Options
		out.SetCookie(c.Name, c.Value, func(o *cookie.Options) { *o = opts })
	}
	return out
}

// runTerminal calls h once. Any failure of h yields the generic 500.
func runTerminal(log *slog.Logger, h Handler, req *request.Request, res *response.Response, err error) (out *response.Response) {
	defer func() {
		if p := recover(); p != nil {
			log.ErrorContext(req, "server error handler panicked",
				logger.Error(err),
				logger.Panic(p),
				logger.Stack(debug.Stack()),
			)
			out = InternalError()
		}
	}()

	out, herr := h(req, res, err)
	if herr != nil {
		log.ErrorContext(req, "server error handler failed",
			logger.Error(err),
			logger.HandlerError(herr),
		)
		return InternalError()
	}
	if out == nil {
		return res
	}
	return out
}

func logFault(log *slog.Logger, req *request.Request, err error, typed bool) {
	attrs := []any{
		logger.Method(req.Method()),
		logger.Path(req.Path()),
		logger.Route(req.RoutePath()),
		logger.Error(err),
		logger.Type(fmt.Sprintf("%T", err)),
	}

	if typed {
		var sc response.StatusCoder
		errors.As(err, &sc)
		attrs = append(attrs, logger.StatusCode(sc.StatusCode()))
		if sc.StatusCode() < http.StatusInternalServerError {
			log.InfoContext(req, "request failed", attrs...)
			return
		}
		log.ErrorContext(req, "request failed", attrs...)
		return
	}

	attrs = append(attrs, logger.Stack(stackOf(err)))
	log.ErrorContext(req, "unhandled error", attrs...)
}

// renderTyped is the rendering of a typed fault no handler claimed: the debug
// route listing for 404s, Default otherwise.
func renderTyped(req *request.Request, err error, debug func() bool, routes func() []string) *response.Response {
	var sc response.StatusCoder
	if routes != nil && errors.As(err, &sc) && sc.StatusCode() == http.StatusNotFound && debug() {
		return NotFoundPage(req, routes())
	}
	return Default(req, err)
}

func isTyped(err error) bool {
	var sc response.StatusCoder
	return errors.As(err, &sc)
}

// stackOf returns the stack captured with a recovered panic, or the current
// stack when the fault did not carry one.
func stackOf(err error) []byte {
	var pe *handler.PanicError
	if errors.As(err, &pe) && len(pe.Stack()) > 0 {
		return pe.Stack()
	}
	return debug.Stack()
}
