package config

import "errors"

var (
	ErrNotPointer = errors.New("config: target must be a non-nil pointer to a struct")
	ErrParseEnv   = errors.New("config: failed to parse environment")
	ErrReadFile   = errors.New("config: failed to read file")
	ErrParseFile  = errors.New("config: failed to parse file")
)
