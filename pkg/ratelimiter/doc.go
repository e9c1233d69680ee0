// Package ratelimiter provides keyed rate limiters for the RateLimit middleware.
//
// MemoryLimiter keeps one golang.org/x/time/rate token bucket per key in a
// bounded LRU, so the least recently seen keys are dropped first. Limits are
// local to the process.
//
// RedisLimiter counts requests per key in fixed windows stored in Redis and
// shares the limit between every process using the same prefix.
//
// Both implement RateLimiter:
//
//	limiter, err := ratelimiter.NewMemoryLimiter(ratelimiter.Config{
//		Limit:    100,
//		Interval: time.Minute,
//	})
//	if err != nil {
//		return err
//	}
//	app.Use(middleware.RateLimit(limiter))
package ratelimiter
