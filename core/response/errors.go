package response

import "errors"

var (
	ErrEncode       = errors.New("response: encode body")
	ErrStreamedBody = errors.New("response: body is streamed")
)
