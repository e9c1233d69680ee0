// Package config loads typed configuration structs from the environment and
// from YAML files.
//
// Environment loading uses caarlos0/env struct tags. A .env file in the
// working directory is read once on first use. Each configuration type is
// loaded once and cached:
//
//	type DatabaseConfig struct {
//		Host string `env:"DB_HOST" envDefault:"localhost"`
//		Port int    `env:"DB_PORT" envDefault:"5432"`
//	}
//
//	var db DatabaseConfig
//	if err := config.Load(&db); err != nil {
//		log.Fatal(err)
//	}
//
// LoadFile layers three sources: envDefault values, then the YAML file
// (with ${VAR} references expanded), then environment variables that are
// actually set. Later sources win.
//
//	var cfg relay.Config
//	err := config.LoadFile("relay.yaml", &cfg)
//
// A Watcher reloads a YAML file when it changes and hands the new value to
// registered callbacks.
package config
