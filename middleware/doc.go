// Package middleware provides the stock handler.Middleware set: request ids,
// structured logging, CORS, sessions, authentication, body and rate limits,
// compression, metrics, tracing, timeouts, security headers, maintenance mode
// and body validation.
//
// Every constructor follows the same shape. Xxx() returns the middleware with
// defaults and XxxWithConfig(cfg) accepts a config struct whose zero fields
// are filled with the same defaults. Each config has an optional Skip
// predicate that bypasses the middleware for matching requests.
//
// Middleware values hold no per-request state. Anything a request needs is
// stored on the request itself (request.Set, request.SetUser,
// session.Attach), so one instance is shared safely by concurrent requests.
//
//	app := relay.New()
//	app.Use(
//		middleware.RequestID(),
//		middleware.Logging(log),
//		middleware.CORS(),
//		middleware.Session(manager),
//		middleware.Auth(auth.Chain(jwtBackend, auth.NewSessionBackend())),
//	)
//
// # Faults
//
// Middleware that reject a request return typed faults (response.HTTPError)
// instead of writing a response. The exception layer renders them, so status
// handlers registered with HandleStatus customise rejections from middleware
// as well as from handlers. Logging, Metrics and Tracing read the status of
// such faults through response.StatusCoder.
//
// A middleware wrapping Auth, RateLimit, BodyLimit, Maintenance, Timeout or
// Validate therefore gets a nil response and a non-nil error from next() when
// the request is rejected; it must not dereference out in that case. Headers
// and cookies set on the shared response before calling next() are copied
// onto the rendered fault, so decorate there:
//
//	func poweredBy(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
//		res.SetHeader("X-Powered-By", "relay")
//		out, err := next()
//		if err != nil {
//			return nil, err
//		}
//		return out, nil
//	}
package middleware
