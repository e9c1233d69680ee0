package health

import (
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
)

// Liveness indicates the process is running.
// Always answers "ALIVE" with 200 OK.
func Liveness(_ *request.Request, res *response.Response) (*response.Response, error) {
	return res.Text("ALIVE"), nil
}

// NoContent answers 204 without a body.
func NoContent(_ *request.Request, res *response.Response) (*response.Response, error) {
	return res.NoContent(), nil
}
