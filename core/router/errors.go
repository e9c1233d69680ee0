package router

import "errors"

var (
	ErrNilHandler     = errors.New("router: nil handler")
	ErrNilRouter      = errors.New("router: nil router")
	ErrInvalidMethod  = errors.New("router: invalid http method")
	ErrDuplicateName  = errors.New("router: duplicate route name")
	ErrUnknownRoute   = errors.New("router: unknown route name")
	ErrInvalidPattern = errors.New("router: invalid route pattern")
)
