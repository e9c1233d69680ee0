package relay

import "errors"

var (
	ErrUnsupportedScope = errors.New("relay: unsupported scope type")
	ErrNilMiddleware    = errors.New("relay: nil middleware")
)
