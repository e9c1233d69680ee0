package session_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/response"
	"github.com/dmitrymomot/relay/core/session"
)

type failingBackend struct {
	err error
}

func (b failingBackend) Load(context.Context, string) (map[string]any, error) { return nil, b.err }
func (b failingBackend) Save(context.Context, string, map[string]any, time.Duration) error {
	return b.err
}
func (b failingBackend) Delete(context.Context, string) error { return b.err }

func TestSessionValues(t *testing.T) {
	t.Parallel()

	s, err := session.New()
	require.NoError(t, err)
	assert.True(t, s.IsNew())
	assert.False(t, s.Modified())
	assert.Len(t, s.ID(), 43)

	s.Delete("missing")
	assert.False(t, s.Modified(), "deleting a missing key is not a change")

	s.Set("user", "ann")
	s.Set("n", 2)
	assert.True(t, s.Modified())
	assert.Equal(t, "ann", s.GetString("user"))
	assert.Empty(t, s.GetString("n"))
	assert.Equal(t, []string{"n", "user"}, s.Keys())

	values := s.Values()
	values["user"] = "changed"
	assert.Equal(t, "ann", s.GetString("user"), "Values returns a copy")

	s.Clear()
	assert.Zero(t, s.Len())
}

func TestManagerLoadAndSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := session.NewMemoryBackend(10, time.Hour)
	m := session.NewManager(backend)

	s, err := m.Load(ctx, "")
	require.NoError(t, err)
	assert.True(t, s.IsNew())

	require.NoError(t, m.Save(ctx, s))
	assert.Zero(t, backend.Len(), "an untouched new session is not stored")

	s.Set("cart", "3 items")
	require.NoError(t, m.Save(ctx, s))
	assert.Equal(t, 1, backend.Len())
	assert.False(t, s.Modified())

	loaded, err := m.Load(ctx, s.ID())
	require.NoError(t, err)
	assert.False(t, loaded.IsNew())
	assert.Equal(t, "3 items", loaded.GetString("cart"))

	unknown, err := m.Load(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.True(t, unknown.IsNew())
	assert.NotEqual(t, "does-not-exist", unknown.ID())
}

func TestManagerRegenerateDropsOldToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := session.NewMemoryBackend(10, time.Hour)
	m := session.NewManager(backend)

	s, err := m.Load(ctx, "")
	require.NoError(t, err)
	s.Set("user", "ann")
	require.NoError(t, m.Save(ctx, s))
	oldID := s.ID()

	loaded, err := m.Load(ctx, oldID)
	require.NoError(t, err)
	require.NoError(t, loaded.Regenerate())
	require.NoError(t, m.Save(ctx, loaded))

	assert.NotEqual(t, oldID, loaded.ID())
	_, err = backend.Load(ctx, oldID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	values, err := backend.Load(ctx, loaded.ID())
	require.NoError(t, err)
	assert.Equal(t, "ann", values["user"])
}

func TestManagerCommitCookies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := session.NewManager(session.NewMemoryBackend(10, time.Hour), session.WithTTL(time.Minute), session.WithCookieName("sid"))

	s, err := m.Load(ctx, "")
	require.NoError(t, err)

	res := response.New()
	require.NoError(t, m.Commit(ctx, s, res))
	assert.Empty(t, res.Cookies(), "unchanged sessions set no cookie")

	s.Set("k", "v")
	require.NoError(t, m.Commit(ctx, s, res))
	require.Len(t, res.Cookies(), 1)
	c := res.Cookies()[0]
	assert.Equal(t, "sid", c.Name)
	assert.Equal(t, s.ID(), c.Value)
	assert.Equal(t, 60, c.Options.MaxAge)
	assert.True(t, c.Options.HttpOnly)

	s.Destroy()
	res = response.New()
	require.NoError(t, m.Commit(ctx, s, res))
	require.Len(t, res.Cookies(), 1)
	assert.Equal(t, -1, res.Cookies()[0].Options.MaxAge)
}

func TestManagerBackendFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	m := session.NewManager(failingBackend{err: boom})

	_, err := m.Load(context.Background(), "abc")
	assert.ErrorIs(t, err, session.ErrLoadSession)
	assert.ErrorIs(t, err, boom)

	s, err := session.New()
	require.NoError(t, err)
	s.Set("k", "v")
	err = m.Save(context.Background(), s)
	assert.ErrorIs(t, err, session.ErrSaveSession)
	assert.True(t, s.Modified(), "a failed save keeps the session dirty")
}

func TestRequestAttachment(t *testing.T) {
	t.Parallel()

	req := request.FromHTTP(httptest.NewRequest(http.MethodGet, "/", nil))
	_, ok := session.FromRequest(req)
	assert.False(t, ok)
	assert.PanicsWithValue(t, session.ErrNoSession, func() { session.MustFromRequest(req) })

	s, err := session.New()
	require.NoError(t, err)
	session.Attach(req, s)
	assert.Same(t, s, session.MustFromRequest(req))
}

func TestMemoryBackendExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := session.NewMemoryBackend(10, 20*time.Millisecond)
	require.NoError(t, b.Save(ctx, "id", map[string]any{"a": 1}, 0))

	values, err := b.Load(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, 1, values["a"])

	assert.Eventually(t, func() bool {
		_, err := b.Load(ctx, "id")
		return errors.Is(err, session.ErrNotFound)
	}, time.Second, 10*time.Millisecond)
}

func redisAvailable(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:6379",
		DialTimeout: 100 * time.Millisecond,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBackend(t *testing.T) {
	client := redisAvailable(t)
	ctx := context.Background()
	prefix := "relay:test:" + strings.ReplaceAll(t.Name(), "/", ":") + ":"
	b := session.NewRedisBackend(client, prefix)

	_, err := b.Load(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, b.Save(ctx, "id", map[string]any{"user": "ann", "n": 2}, time.Minute))
	values, err := b.Load(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, "ann", values["user"])
	assert.InDelta(t, 2.0, values["n"], 0)

	ttl, err := client.TTL(ctx, prefix+"id").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 50*time.Second)

	require.NoError(t, b.Delete(ctx, "id"))
	_, err = b.Load(ctx, "id")
	assert.ErrorIs(t, err, session.ErrNotFound)
}
