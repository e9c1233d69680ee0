package cookie

import "errors"

var (
	ErrInvalidName  = errors.New("invalid cookie name")
	ErrInvalidValue = errors.New("invalid cookie value")
)
