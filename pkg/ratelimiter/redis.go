package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces RedisLimiter keys.
const DefaultRedisPrefix = "relay:ratelimit:"

// RedisLimiter counts requests per key in fixed windows of cfg.Interval.
// Burst is ignored.
type RedisLimiter struct {
	client   redis.UniversalClient
	prefix   string
	limit    int
	interval time.Duration
}

// NewRedisLimiter returns a limiter storing counters under prefix.
// An empty prefix uses DefaultRedisPrefix.
func NewRedisLimiter(client redis.UniversalClient, cfg Config, prefix string) (*RedisLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: redis client is nil", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		limit:    cfg.Limit,
		interval: cfg.Interval,
	}, nil
}

// Allow increments key's counter for the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	k := l.prefix + key

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	ttl := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, errors.Join(ErrStoreUnavailable, err)
	}

	window := ttl.Val()
	if window < 0 {
		// First hit of the window, or a counter that lost its expiry.
		if err := l.client.PExpire(ctx, k, l.interval).Err(); err != nil {
			return Result{}, errors.Join(ErrStoreUnavailable, err)
		}
		window = l.interval
	}

	count := int(incr.Val())
	res := Result{
		Allowed:   count <= l.limit,
		Limit:     l.limit,
		Remaining: max(0, l.limit-count),
		ResetAt:   time.Now().Add(window),
	}
	if !res.Allowed {
		res.RetryAfter = window
	}
	return res, nil
}

// Reset deletes key's counter.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
