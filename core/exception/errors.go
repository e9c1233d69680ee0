package exception

import "errors"

var (
	ErrNilHandler = errors.New("exception: nil handler")
	ErrNilTarget  = errors.New("exception: nil error target")
)
