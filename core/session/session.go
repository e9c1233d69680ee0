package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/dmitrymomot/relay/core/request"
)

// Session holds per-client values between requests. It is safe for
// concurrent use by the goroutines serving one request.
type Session struct {
	mu sync.RWMutex

	id         string
	previousID string
	values     map[string]any

	isNew     bool
	modified  bool
	destroyed bool
}

// New creates an empty session with a fresh token.
func New() (*Session, error) {
	id, err := generateToken()
	if err != nil {
		return nil, errors.Join(ErrTokenGeneration, err)
	}
	return &Session{id: id, values: make(map[string]any), isNew: true}, nil
}

// Restore rebuilds a stored session. values is copied.
func Restore(id string, values map[string]any) *Session {
	s := &Session{id: id, values: make(map[string]any, len(values))}
	maps.Copy(s.values, values)
	return s
}

// ID returns the session token.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// GetString returns the value under key when it is a string.
func (s *Session) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// Set stores value under key and marks the session modified.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.modified = true
}

// Delete removes key. Removing a missing key does not mark the session modified.
func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// Clear removes every value.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return
	}
	clear(s.values)
	s.modified = true
}

// Keys returns the stored keys in sorted order.
func (s *Session) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Values returns a copy of the stored values.
func (s *Session) Values() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.values)
}

// Len returns the number of stored values.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// Regenerate issues a new token and keeps the values. The old token is
// deleted from the backend on the next save. Call it after a privilege
// change such as login.
func (s *Session) Regenerate() error {
	id, err := generateToken()
	if err != nil {
		return errors.Join(ErrTokenGeneration, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.previousID == "" && !s.isNew {
		s.previousID = s.id
	}
	s.id = id
	s.modified = true
	return nil
}

// Destroy marks the session for deletion. The client cookie is expired on save.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.values)
	s.destroyed = true
	s.modified = true
}

// IsNew reports whether the session was created during this request.
func (s *Session) IsNew() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isNew
}

// Modified reports whether the session changed since it was loaded.
func (s *Session) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// Destroyed reports whether Destroy was called.
func (s *Session) Destroyed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.destroyed
}

func (s *Session) markSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isNew = false
	s.modified = false
	s.previousID = ""
}

type contextKey struct{}

// Attach stores s on req.
func Attach(req *request.Request, s *Session) {
	req.Set(contextKey{}, s)
}

// FromRequest returns the session attached to req.
func FromRequest(req *request.Request) (*Session, bool) {
	s, ok := req.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// MustFromRequest returns the attached session and panics when there is none.
func MustFromRequest(req *request.Request) *Session {
	s, ok := FromRequest(req)
	if !ok {
		panic(ErrNoSession)
	}
	return s
}

// generateToken creates a cryptographically secure random token using 32 bytes (256 bits)
// encoded as base64 URL-safe string without padding.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
