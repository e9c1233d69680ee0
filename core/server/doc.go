// Package server runs an http.Handler with graceful shutdown.
//
//	srv := server.New(":8080", server.WithLogger(log))
//	g, ctx := errgroup.WithContext(ctx)
//	g.Go(srv.Run(ctx, app))
//	err := g.Wait()
//
// Start blocks until the context is cancelled; Stop drains connections within
// the shutdown timeout. Run combines both for use in an errgroup.
package server
