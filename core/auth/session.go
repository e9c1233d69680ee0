package auth

import (
	"github.com/dmitrymomot/relay/core/request"
	"github.com/dmitrymomot/relay/core/session"
)

// SessionUserKey is the session key holding the authenticated user id.
const SessionUserKey = "_auth_user_id"

// SessionBackend authenticates the user stored in the request session by Login.
// It needs the session middleware to run first.
type SessionBackend struct{}

// NewSessionBackend creates a session backend.
func NewSessionBackend() SessionBackend { return SessionBackend{} }

// Authenticate returns the user id kept in the session, if any.
func (SessionBackend) Authenticate(req *request.Request) (request.User, string, error) {
	sess, ok := session.FromRequest(req)
	if !ok {
		return nil, "", nil
	}
	id := sess.GetString(SessionUserKey)
	if id == "" {
		return nil, "", nil
	}
	return Identity{Subject: id}, ScopeSession, nil
}

// Login stores userID in the request session, rotates the session token and
// attaches the user to req.
func Login(req *request.Request, userID string) error {
	if userID == "" {
		return ErrEmptySubject
	}
	sess, ok := session.FromRequest(req)
	if !ok {
		return session.ErrNoSession
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(SessionUserKey, userID)
	req.SetUser(Identity{Subject: userID}, ScopeSession)
	return nil
}

// Logout destroys the request session and resets req to anonymous.
func Logout(req *request.Request) {
	if sess, ok := session.FromRequest(req); ok {
		sess.Destroy()
	}
	req.SetUser(nil, "")
}
