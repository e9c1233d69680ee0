package handler

import (
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Next runs the rest of the chain and returns its response.
type Next func() (*response.Response, error)

// HandlerFunc handles a request. Returning a nil response with a nil error
// means the shared res was mutated in place.
type HandlerFunc func(req *request.Request, res *response.Response) (*response.Response, error)

// Middleware is one link of the chain.
type Middleware func(req *request.Request, res *response.Response, next Next) (*response.Response, error)

