package session

import "errors"

var (
	// ErrNotFound is returned by a Backend when no session exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrTokenGeneration is returned when token generation fails.
	ErrTokenGeneration = errors.New("failed to generate token")
	// ErrLoadSession is returned when the backend fails to load a session.
	ErrLoadSession = errors.New("failed to load session")
	// ErrSaveSession is returned when saving a session to the backend fails.
	ErrSaveSession = errors.New("failed to save session")
	// ErrDeleteSession is returned when deleting a session from the backend fails.
	ErrDeleteSession = errors.New("failed to delete session")
	// ErrEncode is returned when session values cannot be serialized.
	ErrEncode = errors.New("failed to encode session")
	// ErrDecode is returned when stored session data cannot be parsed.
	ErrDecode = errors.New("failed to decode session")
	// ErrNoSession is returned when the request carries no session.
	ErrNoSession = errors.New("no session attached to request")
)
