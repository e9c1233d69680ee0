package handler

import (
	"fmt"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// RequestProcessor runs before the rest of the chain. A non-nil response
// short-circuits the chain.
type RequestProcessor interface {
	ProcessRequest(req *request.Request, res *response.Response) (*response.Response, error)
}

// ResponseProcessor runs after the rest of the chain produced a response.
type ResponseProcessor interface {
	ProcessResponse(req *request.Request, res *response.Response) (*response.Response, error)
}

// ErrorProcessor runs when the rest of the chain failed. Returning a nil
// response with a nil error keeps the original error.
type ErrorProcessor interface {
	ProcessError(req *request.Request, res *response.Response, err error) (*response.Response, error)
}

// Adapt composes a structured middleware value into the function shape.
// v must implement at least one of RequestProcessor, ResponseProcessor or
// ErrorProcessor; a Middleware value is returned as is.
func Adapt(v any) Middleware {
	switch mw := v.(type) {
	case Middleware:
		return mw
	case func(*request.Request, *response.Response, Next) (*response.Response, error):
		return mw
	}

	pre, hasPre := v.(RequestProcessor)
	post, hasPost := v.(ResponseProcessor)
	onErr, hasErr := v.(ErrorProcessor)
	if !hasPre && !hasPost && !hasErr {
		panic(fmt.Sprintf("handler: %T implements no processor interface", v))
	}

	return func(req *request.Request, res *response.Response, next Next) (*response.Response, error) {
		if hasPre {
			out, err := pre.ProcessRequest(req, res)
			if err != nil {
				return nil, err
			}
			if out != nil {
				return out, nil
			}
		}

		out, err := next()
		if err != nil {
			if !hasErr {
				return nil, err
			}
			recovered, perr := onErr.ProcessError(req, res, err)
			if perr != nil {
				return nil, perr
			}
			if recovered == nil {
				return nil, err
			}
			return recovered, nil
		}

		if hasPost {
			processed, err := post.ProcessResponse(req, out)
			if err != nil {
				return nil, err
			}
			if processed != nil {
				return processed, nil
			}
		}
		return out, nil
	}
}
