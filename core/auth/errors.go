package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when presented credentials are rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token fails validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned when the token id has been revoked.
	ErrTokenRevoked = errors.New("token has been revoked")
	// ErrEmptySecret is returned when a JWT backend is created without a signing key.
	ErrEmptySecret = errors.New("jwt signing secret is empty")
	// ErrUnexpectedSigningMethod is returned for tokens not signed with HMAC.
	ErrUnexpectedSigningMethod = errors.New("unexpected signing method")
	// ErrSignToken is returned when a token cannot be signed.
	ErrSignToken = errors.New("failed to sign token")
	// ErrEmptySubject is returned when issuing or logging in without a user id.
	ErrEmptySubject = errors.New("subject is empty")
)

// Rejected reports whether err means the request presented bad credentials,
// as opposed to a backend failure.
func Rejected(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrTokenRevoked)
}
