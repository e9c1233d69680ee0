package health

import "errors"

// ErrNotRunning is reported by Started while the application is not serving.
var ErrNotRunning = errors.New("application is not running")
