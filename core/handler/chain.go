package handler

import (
	"runtime/debug"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// State is the execution state of one link for one request.
type State int

const (
	Pending State = iota
	Running
	Suspended
	Completed
	Faulted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Observer is notified of every link state transition. index is the link
// position; the handler is the last index.
type Observer func(req *request.Request, index int, state State)

// Chain is an immutable middleware list around a handler. It is safe to Run
// concurrently; every Run gets its own continuations.
type Chain struct {
	links    []Middleware
	handler  HandlerFunc
	observer Observer
}

// NewChain builds a chain. Middleware run in the given order around h.
func NewChain(h HandlerFunc, middleware ...Middleware) *Chain {
	if h == nil {
		panic(ErrNilHandler)
	}
	for _, mw := range middleware {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
	}
	return &Chain{
		links:   append([]Middleware(nil), middleware...),
		handler: h,
	}
}

// WithObserver returns a copy of the chain reporting state transitions to o.
func (c *Chain) WithObserver(o Observer) *Chain {
	cp := *c
	cp.observer = o
	return &cp
}

// Len returns the number of links including the handler.
func (c *Chain) Len() int { return len(c.links) + 1 }

// Run executes the chain. res is the shared response every link receives;
// a link returning (nil, nil) yields res.
func (c *Chain) Run(req *request.Request, res *response.Response) (*response.Response, error) {
	return c.call(0, req, res)
}

// Handler returns the chain as a HandlerFunc so it can be nested.
func (c *Chain) Handler() HandlerFunc {
	return c.Run
}

func (c *Chain) call(i int, req *request.Request, res *response.Response) (out *response.Response, err error) {
	c.notify(req, i, Pending)

	defer func() {
		if p := recover(); p != nil {
			out, err = nil, NewPanicError(p, debug.Stack())
		}
		switch {
		case err != nil:
			out = nil
			c.notify(req, i, Faulted)
		default:
			if out == nil {
				out = res
			}
			c.notify(req, i, Completed)
		}
	}()

	c.notify(req, i, Running)

	if i == len(c.links) {
		return c.handler(req, res)
	}

	called := false
	next := func() (*response.Response, error) {
		if called {
			return nil, ErrNextCalledTwice
		}
		called = true

		c.notify(req, i, Suspended)
		defer c.notify(req, i, Running)
		return c.call(i+1, req, res)
	}

	return c.links[i](req, res, next)
}

func (c *Chain) notify(req *request.Request, i int, s State) {
	if c.observer != nil {
		c.observer(req, i, s)
	}
}

// Compose folds several middleware into one that runs them in order.
func Compose(middleware ...Middleware) Middleware {
	for _, mw := range middleware {
		if mw == nil {
			panic(ErrNilMiddleware)
		}
	}
	mws := append([]Middleware(nil), middleware...)

	return func(req *request.Request, res *response.Response, next Next) (*response.Response, error) {
		var step func(i int) (*response.Response, error)
		step = func(i int) (*response.Response, error) {
			if i == len(mws) {
				return next()
			}
			called := false
			return mws[i](req, res, func() (*response.Response, error) {
				if called {
					return nil, ErrNextCalledTwice
				}
				called = true
				return step(i + 1)
			})
		}
		return step(0)
	}
}
