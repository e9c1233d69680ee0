package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "relay:session:"

// RedisBackend stores sessions as JSON documents with a TTL.
type RedisBackend struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a backend using client. An empty prefix uses DefaultRedisPrefix.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// Load decodes the stored document.
func (b *RedisBackend) Load(ctx context.Context, id string) (map[string]any, error) {
	data, err := b.client.Get(ctx, b.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return values, nil
}

// Save encodes values and stores them for ttl. A non-positive ttl stores without expiry.
func (b *RedisBackend) Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error {
	data, err := json.Marshal(values)
	if err != nil {
		return errors.Join(ErrEncode, err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return b.client.Set(ctx, b.prefix+id, data, ttl).Err()
}

// Delete removes the session key.
func (b *RedisBackend) Delete(ctx context.Context, id string) error {
	return b.client.Del(ctx, b.prefix+id).Err()
}
