// Package lifecycle runs application startup and shutdown hooks.
//
// A Manager moves through NotStarted, Starting, Running, Stopping and
// Stopped. Startup hooks run in registration order and the first failure
// moves the manager to Failed and is returned to the caller, which must not
// serve requests. Shutdown hooks also run in registration order; a failing
// hook is logged and the remaining hooks still run.
//
//	lm := lifecycle.New(lifecycle.WithLogger(log))
//	lm.OnStartup(func(ctx context.Context) error { return db.Ping(ctx) })
//	lm.OnShutdown(func(ctx context.Context) error { return db.Close() })
//
//	if err := lm.Startup(ctx); err != nil {
//		return err
//	}
//	defer lm.Shutdown(context.Background())
package lifecycle
