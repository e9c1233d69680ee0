package main

import (
	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/core/session"
	"github.com/dmitrymomot/relay/pkg/ratelimiter"
)

// settings extends the application settings with the services the demo wires.
type settings struct {
	relay.Config `yaml:",inline"`

	// MetricsAddr serves /metrics. Empty disables the metrics listener.
	MetricsAddr string `env:"RELAY_METRICS_ADDR" envDefault:":9090" yaml:"metrics_addr"`

	// RedisURL switches sessions and rate limits to Redis when set.
	RedisURL string `env:"REDIS_URL" yaml:"redis_url"`

	// JWTSecret signs API tokens issued by /login.
	JWTSecret string `env:"RELAY_JWT_SECRET" envDefault:"change-me-in-production" yaml:"jwt_secret"`

	// DemoPassword is the password of the "demo" user accepted by /login.
	DemoPassword string `env:"RELAY_DEMO_PASSWORD" envDefault:"demo" yaml:"demo_password"`

	// Maintenance answers 503 to everything but health probes.
	Maintenance bool `env:"RELAY_MAINTENANCE" envDefault:"false" yaml:"maintenance"`

	RateLimit ratelimiter.Config `yaml:"rate_limit"`
	Session   session.Config     `yaml:"session"`
}
