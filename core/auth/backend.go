package auth

import (
	"github.com/dmitrymomot/relay/core/request"
)

// Scope labels of the bundled backends.
const (
	ScopeJWT     = "jwt"
	ScopeBasic   = "basic"
	ScopeSession = "session"
)

// Backend authenticates a request.
type Backend interface {
	// Authenticate returns the user and scope label, or a nil user when the
	// request carries no credentials for this backend.
	Authenticate(req *request.Request) (request.User, string, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(req *request.Request) (request.User, string, error)

// Authenticate calls f.
func (f BackendFunc) Authenticate(req *request.Request) (request.User, string, error) {
	return f(req)
}

// Identity is the user produced by the bundled backends.
type Identity struct {
	Subject string
	Claims  map[string]any
}

// ID returns the subject.
func (i Identity) ID() string { return i.Subject }

// IsAuthenticated reports whether the identity has a subject.
func (i Identity) IsAuthenticated() bool { return i.Subject != "" }

// Claim returns a claim value.
func (i Identity) Claim(name string) (any, bool) {
	v, ok := i.Claims[name]
	return v, ok
}

// Chain tries backends in order and returns the first user found. A rejection
// or failure stops the chain.
func Chain(backends ...Backend) Backend {
	return BackendFunc(func(req *request.Request) (request.User, string, error) {
		for _, b := range backends {
			user, scope, err := b.Authenticate(req)
			if err != nil {
				return nil, "", err
			}
			if user != nil {
				return user, scope, nil
			}
		}
		return nil, "", nil
	})
}
