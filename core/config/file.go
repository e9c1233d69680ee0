package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-yaml"
)

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// noDefaults names a tag no field carries, so the second env pass applies
// only variables that are set.
const noDefaults = "relay-no-default"

// LoadFile fills cfg from envDefault tags, then the YAML file at path, then
// set environment variables.
func LoadFile[T any](path string, cfg *T) error {
	if cfg == nil {
		return ErrNotPointer
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return ParseYAML(data, cfg)
}

// ParseYAML is LoadFile for in-memory YAML.
func ParseYAML[T any](data []byte, cfg *T) error {
	if cfg == nil {
		return ErrNotPointer
	}
	loadDotenv()

	var out T
	if err := env.Parse(&out); err != nil {
		return fmt.Errorf("%w: %w", ErrParseEnv, err)
	}
	if err := yaml.Unmarshal(expandEnv(data), &out); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFile, err)
	}
	if err := env.ParseWithOptions(&out, env.Options{DefaultValueTagName: noDefaults}); err != nil {
		return fmt.Errorf("%w: %w", ErrParseEnv, err)
	}

	*cfg = out
	return nil
}

// expandEnv replaces ${VAR} with its value. Unset variables are left as is.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		name := string(m[2 : len(m)-1])
		if v, ok := os.LookupEnv(name); ok {
			return []byte(v)
		}
		return m
	})
}
