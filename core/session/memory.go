package session

import (
	"context"
	"maps"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryBackend keeps sessions in a size-bounded LRU with a fixed TTL.
// The ttl passed to Save is ignored; entries expire after the TTL given to
// NewMemoryBackend. Sessions are lost on restart.
type MemoryBackend struct {
	cache *expirable.LRU[string, map[string]any]
}

// NewMemoryBackend creates a backend holding at most size sessions.
func NewMemoryBackend(size int, ttl time.Duration) *MemoryBackend {
	if size <= 0 {
		size = 10_000
	}
	return &MemoryBackend{cache: expirable.NewLRU[string, map[string]any](size, nil, ttl)}
}

// Load returns a copy of the stored values.
func (b *MemoryBackend) Load(_ context.Context, id string) (map[string]any, error) {
	values, ok := b.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return maps.Clone(values), nil
}

// Save stores a copy of values.
func (b *MemoryBackend) Save(_ context.Context, id string, values map[string]any, _ time.Duration) error {
	stored := make(map[string]any, len(values))
	maps.Copy(stored, values)
	b.cache.Add(id, stored)
	return nil
}

// Delete removes the session.
func (b *MemoryBackend) Delete(_ context.Context, id string) error {
	b.cache.Remove(id)
	return nil
}

// Len returns the number of live sessions.
func (b *MemoryBackend) Len() int {
	return b.cache.Len()
}
