// Package health provides handlers for service health probes.
//
// Handlers:
//   - Liveness: the process is running (no dependency checks)
//   - Readiness: the application finished startup and every dependency answers
//   - NoContent: 204 for minimal overhead
//
// Usage:
//
//	app.Get("/health/live", health.Liveness)
//	app.Get("/health/ready", health.Readiness(log,
//		health.Started(app.Lifecycle()),
//		rdb.Ping,
//	))
//	app.Get("/ping", health.NoContent)
//
// Dependency checks follow the func(context.Context) error signature:
//
//	func checkRedis(ctx context.Context) error {
//		return rdb.Ping(ctx).Err()
//	}
package health
