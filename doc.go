// Package relay is a small asynchronous web framework core: an ordered route
// table, a per-request middleware chain, request and response contexts, a
// fault dispatcher and a lifecycle manager, bound to the network through a
// message based transport contract.
//
// Every request runs through a chain built from
//
//	[server errors, global middleware..., route middleware..., exception middleware, handler]
//
// The outermost link is always present. It logs any fault that reaches it and
// turns it into a response, so nothing escapes to the transport.
//
//	app := relay.New(relay.WithLogger(log))
//	app.Use(middleware.Logging(log))
//	app.Get("/users/{id:int}", showUser, router.WithName("user"))
//
//	if err := app.Run(ctx, ":8080"); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// App implements both transport.App and http.Handler.
package relay
