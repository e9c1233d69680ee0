package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server: address is required")
	ErrServerAlreadyRunning = errors.New("server: already running")
	ErrFailedLoadCert       = errors.New("server: failed to load certificate")
	ErrShutdown             = errors.New("server: shutdown failed")
)
