package route

import "errors"

var (
	ErrEmptyPattern     = errors.New("empty route pattern")
	ErrInvalidRegexp    = errors.New("invalid route pattern regexp")
	ErrParamDelimiter   = errors.New("unbalanced parameter delimiter")
	ErrInvalidParamName = errors.New("invalid parameter name")
	ErrDuplicateParam   = errors.New("duplicate parameter name")
	ErrParamMismatch    = errors.New("url parameters do not match route")
	ErrNotReversible    = errors.New("route pattern cannot be reversed")
)
