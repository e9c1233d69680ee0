package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/relay/core/response"
)

// statusOf reports the status a request ends with: the response status on
// success, the fault's own status for typed faults and 500 otherwise.
func statusOf(out *response.Response, err error) int {
	if err != nil {
		var sc response.StatusCoder
		if errors.As(err, &sc) {
			return sc.StatusCode()
		}
		return http.StatusInternalServerError
	}
	if out == nil {
		return http.StatusOK
	}
	return out.Status()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
