package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/relay/core/request"
)

// CredentialStore looks up password hashes by username.
type CredentialStore interface {
	// PasswordHash returns the bcrypt hash for username, or ErrInvalidCredentials.
	PasswordHash(ctx context.Context, username string) ([]byte, error)
}

// StaticCredentials maps usernames to bcrypt hashes.
type StaticCredentials map[string][]byte

// PasswordHash implements CredentialStore.
func (c StaticCredentials) PasswordHash(_ context.Context, username string) ([]byte, error) {
	hash, ok := c[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return hash, nil
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
}

// BasicBackend authenticates HTTP Basic credentials.
type BasicBackend struct {
	store CredentialStore
}

// NewBasicBackend creates a backend checking passwords from store.
func NewBasicBackend(store CredentialStore) *BasicBackend {
	return &BasicBackend{store: store}
}

// Authenticate checks the Basic Authorization header.
func (b *BasicBackend) Authenticate(req *request.Request) (request.User, string, error) {
	scheme, encoded, ok := strings.Cut(req.Header("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Basic") {
		return nil, "", nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, "", fmt.Errorf("%w: malformed basic credentials", ErrInvalidCredentials)
	}
	username, password, ok := strings.Cut(string(raw), ":")
	if !ok || username == "" {
		return nil, "", fmt.Errorf("%w: malformed basic credentials", ErrInvalidCredentials)
	}

	hash, err := b.store.PasswordHash(req.Context(), username)
	if err != nil {
		return nil, "", err
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Join(ErrInvalidCredentials, err)
	}
	return Identity{Subject: username}, ScopeBasic, nil
}
