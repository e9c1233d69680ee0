// Package transport defines the connection contract between a host server and
// an application.
//
// A host builds a Scope for every inbound request and hands the application two
// callables. Receive yields request body chunks (and a disconnect message once
// the client goes away). Send accepts exactly one response start message followed
// by one or more body messages, the last one with MoreBody set to false.
//
//	app := transport.AppFunc(func(ctx context.Context, scope *transport.Scope, receive transport.Receive, send transport.Send) error {
//		if err := send(ctx, transport.Message{Type: transport.ResponseStart, Status: 200}); err != nil {
//			return err
//		}
//		return send(ctx, transport.Message{Type: transport.ResponseBody, Body: []byte("ok")})
//	})
//	http.ListenAndServe(":8080", transport.Handler(app))
//
// Header names inside messages are lowercase. Repeated headers such as
// set-cookie are separate entries and never comma-joined.
package transport
