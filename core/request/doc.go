// Package request wraps one inbound connection scope.
//
// A Request is created per connection event and is never shared between
// connections. It implements context.Context, so it can be passed straight to
// database drivers and other blocking calls.
//
// Everything derived from the scope is parsed lazily on first access: headers,
// cookies (first value wins when a name repeats) and query parameters (repeated
// keys collapse into a list).
//
// The body can be read whole with Body, or chunk by chunk with Stream. Chunks
// are cached as they arrive, so mixing both strategies on one request works:
//
//	for chunk, err := range req.Stream() {
//		if err != nil {
//			return nil, err
//		}
//		if isHeader(chunk) {
//			break
//		}
//	}
//	all, err := req.Body() // includes the chunks already streamed
//
// A client disconnect while waiting for body data turns into ErrClientDisconnected.
// The error is sticky: every later read fails immediately with it.
//
// Per-request state (session handle, authenticated user, request id) lives on
// the Request through Set/Value, never on a middleware value.
package request
