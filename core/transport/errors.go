package transport

import "errors"

var (
	ErrDisconnected       = errors.New("client disconnected")
	ErrResponseStarted    = errors.New("response already started")
	ErrResponseNotStarted = errors.New("response body sent before response start")
	ErrResponseComplete   = errors.New("response already complete")
	ErrUnknownMessage     = errors.New("unknown message type")
)
