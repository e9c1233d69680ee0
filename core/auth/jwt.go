package auth

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/core/request"
)

// JWTBackend authenticates HMAC-signed bearer tokens.
type JWTBackend struct {
	secret     []byte
	method     *jwt.SigningMethodHMAC
	issuer     string
	audience   string
	headerName string
	leeway     time.Duration
	revoker    Revoker
	now        func() time.Time
}

// JWTOption configures a JWTBackend.
type JWTOption func(*JWTBackend)

// WithIssuer sets the issuer written by Issue and required by Authenticate.
func WithIssuer(issuer string) JWTOption {
	return func(b *JWTBackend) {
		b.issuer = issuer
	}
}

// WithAudience sets the audience written by Issue and required by Authenticate.
func WithAudience(audience string) JWTOption {
	return func(b *JWTBackend) {
		b.audience = audience
	}
}

// WithHeaderName reads the token from a custom header.
// Default is "Authorization".
func WithHeaderName(name string) JWTOption {
	return func(b *JWTBackend) {
		if name != "" {
			b.headerName = name
		}
	}
}

// WithSigningMethod selects HS256, HS384 or HS512. Default is HS256.
func WithSigningMethod(method *jwt.SigningMethodHMAC) JWTOption {
	return func(b *JWTBackend) {
		if method != nil {
			b.method = method
		}
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(d time.Duration) JWTOption {
	return func(b *JWTBackend) {
		b.leeway = d
	}
}

// WithRevoker checks every token id against r.
func WithRevoker(r Revoker) JWTOption {
	return func(b *JWTBackend) {
		b.revoker = r
	}
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) JWTOption {
	return func(b *JWTBackend) {
		if now != nil {
			b.now = now
		}
	}
}

// NewJWTBackend creates a JWT backend signing with secret.
func NewJWTBackend(secret []byte, opts ...JWTOption) (*JWTBackend, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	b := &JWTBackend{
		secret:     secret,
		method:     jwt.SigningMethodHS256,
		headerName: "Authorization",
		revoker:    NoOpRevoker{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Issue signs a token for subject valid for ttl. Registered claims override
// the same keys in extra.
func (b *JWTBackend) Issue(subject string, ttl time.Duration, extra map[string]any) (string, error) {
	if subject == "" {
		return "", ErrEmptySubject
	}

	now := b.now()
	claims := jwt.MapClaims{}
	maps.Copy(claims, extra)
	claims["sub"] = subject
	claims["jti"] = uuid.NewString()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()
	if b.issuer != "" {
		claims["iss"] = b.issuer
	}
	if b.audience != "" {
		claims["aud"] = b.audience
	}

	signed, err := jwt.NewWithClaims(b.method, claims).SignedString(b.secret)
	if err != nil {
		return "", errors.Join(ErrSignToken, err)
	}
	return signed, nil
}

// Authenticate validates the bearer token of req. A request without the
// header is anonymous; a malformed or invalid token is rejected.
func (b *JWTBackend) Authenticate(req *request.Request) (request.User, string, error) {
	header := req.Header(b.headerName)
	if header == "" {
		return nil, "", nil
	}

	token := header
	if b.headerName == "Authorization" {
		scheme, rest, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return nil, "", nil
		}
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return nil, "", ErrInvalidToken
	}

	claims, err := b.Parse(token)
	if err != nil {
		return nil, "", err
	}

	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := b.revoker.IsRevoked(req.Context(), jti)
		if err != nil {
			return nil, "", fmt.Errorf("check token revocation: %w", err)
		}
		if revoked {
			return nil, "", ErrTokenRevoked
		}
	}

	sub, _ := claims.GetSubject()
	if sub == "" {
		return nil, "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{Subject: sub, Claims: claims}, ScopeJWT, nil
}

// Parse validates token and returns its claims.
func (b *JWTBackend) Parse(token string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{b.method.Alg()}),
		jwt.WithTimeFunc(b.now),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(b.leeway),
	}
	if b.issuer != "" {
		opts = append(opts, jwt.WithIssuer(b.issuer))
	}
	if b.audience != "" {
		opts = append(opts, jwt.WithAudience(b.audience))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, b.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

func (b *JWTBackend) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
	}
	return b.secret, nil
}

// Revoke blacklists the id of token until it expires.
func (b *JWTBackend) Revoke(req *request.Request, token string) error {
	claims, err := b.Parse(token)
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil
	}
	exp, _ := claims.GetExpirationTime()
	ttl := time.Duration(0)
	if exp != nil {
		ttl = exp.Sub(b.now())
	}
	return b.revoker.Revoke(req.Context(), jti, ttl)
}
