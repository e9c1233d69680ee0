// Package response provides the mutable outbound half of the per-call context pair.
//
// Handlers receive a *Response, shape it and return it:
//
//	func show(req *request.Request, res *response.Response) (*response.Response, error) {
//		return res.SetStatus(http.StatusOK).JSON(map[string]string{"id": req.Param("id")}), nil
//	}
//
// Headers follow last-write-wins through SetHeader and accumulate through
// AddHeader. Cookies are queued with SetCookie and each one becomes its own
// set-cookie entry when the response is written.
//
// The body is tagged with a Kind (json, text, html, binary, stream, redirect,
// file). Streamed and file bodies are read only while the response is written,
// and their source is closed on every exit path, including failures.
//
// Typed HTTP faults are HTTPError values. Returning one from a handler lets the
// exception layer turn it into a response with the matching status:
//
//	return nil, response.ErrNotFound.WithMessage("user not found")
package response
