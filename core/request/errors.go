package request

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrymomot/relay/core/transport"
)

var (
	// ErrClientDisconnected is returned by body reads after the client went away.
	ErrClientDisconnected = fmt.Errorf("request: %w", transport.ErrDisconnected)
	ErrUnexpectedMessage  = errors.New("request: unexpected message while reading body")
	ErrEmptyBody          = errors.New("request: empty body")
	ErrUnsupportedMedia   = errors.New("request: unsupported content type")
	// ErrBodyTooLarge is returned by body reads past the limit set with LimitBody.
	// It reports status 413.
	ErrBodyTooLarge = statusError{status: http.StatusRequestEntityTooLarge, msg: "request: body too large"}
)

type statusError struct {
	status int
	msg    string
}

func (e statusError) Error() string   { return e.msg }
func (e statusError) StatusCode() int { return e.status }
