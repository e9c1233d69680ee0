package relay

import (
	"github.com/dmitrymomot/relay/core/logger"
	"github.com/dmitrymomot/relay/core/server"
)

// Config is the application configuration. Every field has a documented
// default; unknown keys in a YAML file are ignored.
type Config struct {
	// Debug renders trace pages for unhandled faults and route listings
	// for unmatched paths.
	Debug bool `env:"RELAY_DEBUG" envDefault:"false" yaml:"debug"`

	// Prefix is applied to every route of the application router.
	Prefix string `env:"RELAY_PREFIX" yaml:"prefix"`

	// MatchCacheSize bounds the route match cache. Zero disables it.
	MatchCacheSize int `env:"RELAY_MATCH_CACHE_SIZE" envDefault:"1024" yaml:"match_cache_size"`

	// BodyChunkSize is the largest request body chunk delivered at once.
	BodyChunkSize int `env:"RELAY_BODY_CHUNK_SIZE" envDefault:"65536" yaml:"body_chunk_size"`

	Server server.Config `yaml:"server"`
	Log    logger.Config `yaml:"log"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		MatchCacheSize: 1024,
		BodyChunkSize:  64 * 1024,
		Server:         server.DefaultConfig(),
		Log:            logger.Config{Level: "info", Format: "text"},
	}
}
