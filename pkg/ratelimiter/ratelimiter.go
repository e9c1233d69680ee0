package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// RateLimiter consumes one unit of key's allowance.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// Config describes an allowance of Limit requests per Interval.
type Config struct {
	// Limit is the number of requests allowed per Interval.
	Limit int `env:"RATE_LIMIT" envDefault:"100" yaml:"limit"`

	// Interval is the window the limit applies to.
	Interval time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"1m" yaml:"interval"`

	// Burst is the token bucket size of MemoryLimiter. Defaults to Limit.
	Burst int `env:"RATE_LIMIT_BURST" yaml:"burst"`
}

// Validate reports whether the config can build a limiter.
func (c Config) Validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidConfig, c.Limit)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfig, c.Interval)
	}
	if c.Burst < 0 {
		return fmt.Errorf("%w: burst must not be negative, got %d", ErrInvalidConfig, c.Burst)
	}
	return nil
}

func (c Config) burst() int {
	if c.Burst > 0 {
		return c.Burst
	}
	return c.Limit
}

// Result describes the allowance after one Allow call.
type Result struct {
	// Allowed is false when the request must be rejected.
	Allowed bool

	// Limit is the size of the allowance.
	Limit int

	// Remaining is what is left of the allowance. Never negative.
	Remaining int

	// ResetAt is when the allowance is full again.
	ResetAt time.Time

	// RetryAfter is how long a rejected caller should wait. Zero when allowed.
	RetryAfter time.Duration
}
