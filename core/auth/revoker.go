package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Revoker handles token revocation using JWT IDs (jti claims).
type Revoker interface {
	// IsRevoked checks if a JWT ID has been revoked.
	IsRevoked(ctx context.Context, jti string) (bool, error)
	// Revoke marks a JWT ID as revoked for ttl, normally the token's remaining lifetime.
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// NoOpRevoker never revokes tokens.
type NoOpRevoker struct{}

// IsRevoked always returns false.
func (NoOpRevoker) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// Revoke does nothing.
func (NoOpRevoker) Revoke(context.Context, string, time.Duration) error { return nil }

// MemoryRevoker keeps revoked ids in a bounded LRU. Entries expire after the
// revoker's max TTL even when a longer ttl is requested.
type MemoryRevoker struct {
	cache *expirable.LRU[string, time.Time]
}

// NewMemoryRevoker creates a revoker remembering at most size ids for up to maxTTL.
func NewMemoryRevoker(size int, maxTTL time.Duration) *MemoryRevoker {
	if size <= 0 {
		size = 10_000
	}
	return &MemoryRevoker{cache: expirable.NewLRU[string, time.Time](size, nil, maxTTL)}
}

// IsRevoked reports whether jti was revoked and has not expired.
func (r *MemoryRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	until, ok := r.cache.Get(jti)
	if !ok {
		return false, nil
	}
	if !until.IsZero() && time.Now().After(until) {
		r.cache.Remove(jti)
		return false, nil
	}
	return true, nil
}

// Revoke records jti. A non-positive ttl keeps it until the LRU evicts it.
func (r *MemoryRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	var until time.Time
	if ttl > 0 {
		until = time.Now().Add(ttl)
	}
	r.cache.Add(jti, until)
	return nil
}
