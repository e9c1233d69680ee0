package ratelimiter

import (
	"context"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxKeys bounds the number of keys a MemoryLimiter tracks.
const DefaultMaxKeys = 10000

// MemoryOption configures a MemoryLimiter.
type MemoryOption func(*MemoryLimiter)

// WithMaxKeys bounds the number of tracked keys. The least recently used
// key is forgotten first, which resets its allowance.
func WithMaxKeys(n int) MemoryOption {
	return func(l *MemoryLimiter) {
		if n > 0 {
			l.maxKeys = n
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(l *MemoryLimiter) {
		if now != nil {
			l.now = now
		}
	}
}

// MemoryLimiter is a per-key token bucket limiter held in process memory.
type MemoryLimiter struct {
	limit   rate.Limit
	burst   int
	maxKeys int
	now     func() time.Time

	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
}

// NewMemoryLimiter returns a limiter that refills cfg.Limit tokens every
// cfg.Interval into buckets of cfg.Burst tokens.
func NewMemoryLimiter(cfg Config, opts ...MemoryOption) (*MemoryLimiter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &MemoryLimiter{
		limit:   rate.Limit(float64(cfg.Limit) / cfg.Interval.Seconds()),
		burst:   cfg.burst(),
		maxKeys: DefaultMaxKeys,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := lru.New[string, *rate.Limiter](l.maxKeys)
	if err != nil {
		return nil, err
	}
	l.limiters = cache
	return l, nil
}

// Allow consumes one token of key's bucket.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := l.now()
	lim := l.limiter(key)

	res := Result{Limit: l.burst, Allowed: lim.AllowN(now, 1)}

	tokens := lim.TokensAt(now)
	res.Remaining = max(0, int(math.Floor(tokens)))
	res.ResetAt = now.Add(l.until(tokens, float64(l.burst)))
	if !res.Allowed {
		res.RetryAfter = max(l.until(tokens, 1), time.Millisecond)
	}
	return res, nil
}

// Len returns the number of tracked keys.
func (l *MemoryLimiter) Len() int {
	return l.limiters.Len()
}

// Reset forgets key, restoring its full allowance.
func (l *MemoryLimiter) Reset(key string) {
	l.limiters.Remove(key)
}

func (l *MemoryLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.limiters.Get(key); ok {
		return lim
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.Add(key, lim)
	return lim
}

// until is the time a bucket holding tokens needs to hold want tokens.
func (l *MemoryLimiter) until(tokens, want float64) time.Duration {
	missing := want - tokens
	if missing <= 0 {
		return 0
	}
	return time.Duration(missing / float64(l.limit) * float64(time.Second))
}
