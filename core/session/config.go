package session

import (
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/core/cookie"
)

// DefaultCookieName is the cookie carrying the session token.
const DefaultCookieName = "session_id"

// Config holds session settings loadable from the environment.
type Config struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session_id" yaml:"cookie_name"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"24h" yaml:"ttl"`
	MemorySize int           `env:"SESSION_MEMORY_SIZE" envDefault:"10000" yaml:"memory_size"`
	Cookie     cookie.Config `yaml:"cookie"`
}

// DefaultConfig returns the defaults matching the env tags.
func DefaultConfig() Config {
	return Config{
		CookieName: DefaultCookieName,
		TTL:        24 * time.Hour,
		MemorySize: 10_000,
		Cookie: cookie.Config{
			Path:     "/",
			HttpOnly: true,
			SameSite: 2,
		},
	}
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the session time-to-live. Every save extends it.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithCookieName sets the cookie carrying the token.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithCookieOptions sets the attributes of the session cookie.
func WithCookieOptions(opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieOpts = append(m.cookieOpts, opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewFromConfig creates a manager over backend using cfg.
func NewFromConfig(backend Backend, cfg Config, opts ...Option) *Manager {
	base := []Option{
		WithTTL(cfg.TTL),
		WithCookieName(cfg.CookieName),
		WithCookieOptions(func(o *cookie.Options) {
			*o = cfg.Cookie.Options()
		}),
	}
	return NewManager(backend, append(base, opts...)...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
