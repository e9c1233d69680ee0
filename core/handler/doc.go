// Package handler defines handler and middleware contracts and the chain
// executor that threads a request through them.
//
// A chain is built from an ordered middleware list around one handler:
//
//	chain := handler.NewChain(show, logging, auth)
//	res, err := chain.Run(req, res)
//
// Each middleware receives a continuation. It may skip it (short-circuit),
// call it once and return the result, call it and post-process the result,
// or call it and recover from the error it returns:
//
//	func timing(req *request.Request, res *response.Response, next handler.Next) (*response.Response, error) {
//		start := time.Now()
//		out, err := next()
//		if err != nil {
//			return nil, err
//		}
//		return out.SetHeader("X-Elapsed", time.Since(start).String()), nil
//	}
//
// Pre-phase code runs in registration order and post-phase code in reverse order.
// Calling next a second time returns ErrNextCalledTwice without re-running
// anything downstream.
//
// A panic in any link is converted into a *PanicError and returned to the
// link above it, exactly like a returned error. Nothing is recovered implicitly:
// only a link that inspects the error from next can substitute a response.
//
// Middleware values are shared by all concurrent requests. Per-request state
// must live on the Request (req.Set) or the Response, never in fields of the
// middleware value.
package handler
