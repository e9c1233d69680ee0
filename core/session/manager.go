package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/core/cookie"
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/response"
)

// Manager loads and persists sessions through a Backend.
// Unmodified sessions are never written back.
type Manager struct {
	backend    Backend
	ttl        time.Duration
	cookieName string
	cookieOpts []cookie.Option
	logger     *slog.Logger
}

// NewManager creates a session manager over backend. Sessions live for 24
// hours by default and travel in an HttpOnly "session_id" cookie.
func NewManager(backend Backend, opts ...Option) *Manager {
	m := &Manager{
		backend:    backend,
		ttl:        24 * time.Hour,
		cookieName: DefaultCookieName,
		cookieOpts: []cookie.Option{cookie.WithHTTPOnly(true)},
		logger:     discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string { return m.cookieName }

// TTL returns the session time-to-live.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Load returns the session stored under id. An empty or unknown id yields a
// new session; only backend failures are returned as errors.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return New()
	}

	values, err := m.backend.Load(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		m.logger.DebugContext(ctx, "session not found, starting a new one")
		return New()
	case err != nil:
		return nil, errors.Join(ErrLoadSession, err)
	}
	return Restore(id, values), nil
}

// Save persists s when it changed. A destroyed session is deleted instead,
// and a regenerated one releases its previous token.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s.Destroyed() {
		if s.IsNew() {
			return nil
		}
		if err := m.backend.Delete(ctx, s.ID()); err != nil {
			return errors.Join(ErrDeleteSession, err)
		}
		return nil
	}
	if !s.Modified() {
		return nil
	}

	s.mu.RLock()
	id, previous := s.id, s.previousID
	s.mu.RUnlock()

	if err := m.backend.Save(ctx, id, s.Values(), m.ttl); err != nil {
		return errors.Join(ErrSaveSession, err)
	}
	if previous != "" {
		if err := m.backend.Delete(ctx, previous); err != nil {
			m.logger.WarnContext(ctx, "failed to delete rotated session", logger.Error(err))
		}
	}
	s.markSaved()
	return nil
}

// Commit saves s and sets or expires the session cookie on res.
func (m *Manager) Commit(ctx context.Context, s *Session, res *response.Response) error {
	destroyed, modified := s.Destroyed(), s.Modified()
	if err := m.Save(ctx, s); err != nil {
		return err
	}

	switch {
	case destroyed:
		res.DeleteCookie(m.cookieName, m.cookieOptions())
	case modified:
		res.SetCookie(m.cookieName, s.ID(), m.cookieOptions())
	}
	return nil
}

// cookieOptions folds the configured options into one, defaulting Max-Age to the TTL.
func (m *Manager) cookieOptions() cookie.Option {
	opts := cookie.Apply(cookie.DefaultOptions(), m.cookieOpts...)
	if opts.MaxAge == 0 && opts.Expires.IsZero() {
		opts.MaxAge = int(m.ttl.Seconds())
	}
	return func(o *cookie.Options) { *o = opts }
}
