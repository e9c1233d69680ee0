package session

import (
	"context"
	"time"
)

// Backend persists session values keyed by session token.
// Implementations must handle concurrent access safely.
type Backend interface {
	// Load returns the stored values, or ErrNotFound.
	Load(ctx context.Context, id string) (map[string]any, error)
	// Save stores values for ttl, replacing any previous document.
	Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
