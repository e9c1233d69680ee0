package exception

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Handler turns a fault into a response.
type Handler func(req *request.Request, res *response.Response, err error) (*response.Response, error)

type entry struct {
	iface bool
	match func(error) bool
	h     Handler
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for failing handlers.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// Dispatcher resolves faults to handlers. Registration is safe while serving.
type Dispatcher struct {
	mu       sync.RWMutex
	statuses map[int]Handler
	entries  []entry
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		statuses: make(map[int]Handler),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// HandleStatus registers h for typed faults carrying status.
func (d *Dispatcher) HandleStatus(status int, h Handler) {
	if h == nil {
		panic(ErrNilHandler)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses[status] = h
}

// HandleError registers h for a sentinel error value.
func (d *Dispatcher) HandleError(target error, h Handler) {
	if h == nil {
		panic(ErrNilHandler)
	}
	if target == nil {
		panic(ErrNilTarget)
	}
	d.add(entry{
		match: func(err error) bool { return sameError(err, target) },
		h:     h,
	})
}

// HandleType registers h for errors of type E. When E is an interface type the
// registration matches any error implementing it, after exact matches failed.
func HandleType[E error](d *Dispatcher, h Handler) {
	if h == nil {
		panic(ErrNilHandler)
	}
	t := reflect.TypeFor[E]()
	d.add(entry{
		iface: t.Kind() == reflect.Interface,
		match: func(err error) bool {
			_, ok := err.(E)
			return ok
		},
		h: h,
	})
}

func (d *Dispatcher) add(e entry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, e)
}

// Resolve returns the handler registered for err.
func (d *Dispatcher) Resolve(err error) (Handler, bool) {
	if err == nil {
		return nil, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var sc response.StatusCoder
	if errors.As(err, &sc) {
		if h, ok := d.statuses[sc.StatusCode()]; ok {
			return h, true
		}
	}

	chain := unwrapAll(err)
	for _, iface := range []bool{false, true} {
		for _, link := range chain {
			for _, e := range d.entries {
				if e.iface == iface && e.match(link) {
					return e.h, true
				}
			}
		}
	}
	return nil, false
}

// Dispatch runs the handler resolved for err. handled is false when nothing
// is registered. A failing handler yields the generic 500 response.
func (d *Dispatcher) Dispatch(req *request.Request, res *response.Response, err error) (out *response.Response, handled bool) {
	h, ok := d.Resolve(err)
	if !ok {
		return nil, false
	}

	defer func() {
		if p := recover(); p != nil {
			d.logger.ErrorContext(req, "exception handler panicked",
				logger.Error(err),
				logger.Panic(p),
				logger.Stack(debug.Stack()),
			)
			out, handled = InternalError(), true
		}
	}()

	out, herr := h(req, res, err)
	if herr != nil {
		d.logger.ErrorContext(req, "exception handler failed",
			logger.Error(err),
			logger.HandlerError(herr),
		)
		return InternalError(), true
	}
	if out == nil {
		out = res
	}
	return out, true
}

// Default renders err without any registered handler: the fault's own status
// (500 for untyped faults) and its message as JSON, or as plain text when the
// client prefers text/plain.
func Default(req *request.Request, err error) *response.Response {
	var he response.HTTPError
	if errors.As(err, &he) {
		if prefersText(req) {
			res := response.Text(he.StatusCode(), he.Message)
			copyHeaders(res, he.Headers)
			return res
		}
		return response.FromHTTPError(he)
	}

	status := http.StatusInternalServerError
	var sc response.StatusCoder
	if errors.As(err, &sc) {
		status = sc.StatusCode()
	}

	if prefersText(req) {
		return response.Text(status, err.Error())
	}
	return response.JSON(status, response.ErrorBody{Error: err.Error()})
}

// InternalError is the generic 500 response.
func InternalError() *response.Response {
	return response.Text(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

func copyHeaders(res *response.Response, h http.Header) {
	for k, vs := range h {
		for _, v := range vs {
			res.AddHeader(k, v)
		}
	}
}

func prefersText(req *request.Request) bool {
	if req == nil {
		return false
	}
	accept := strings.ToLower(req.Header("Accept"))
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json")
}

// unwrapAll flattens the wrap chain depth-first, outermost first.
func unwrapAll(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		out = append(out, e)
		switch u := e.(type) {
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}

// sameError reports whether err is target itself, without following the wrap chain.
func sameError(err, target error) bool {
	if reflect.TypeOf(err) == reflect.TypeOf(target) && reflect.TypeOf(target).Comparable() && err == target {
		return true
	}
	if x, ok := err.(interface{ Is(error) bool }); ok {
		return x.Is(target)
	}
	return false
}
