package lifecycle

import "errors"

var (
	ErrNilHook      = errors.New("lifecycle: nil hook")
	ErrInvalidState = errors.New("lifecycle: invalid state transition")
	ErrStartupHook  = errors.New("lifecycle: startup hook failed")
	ErrShutdownHook = errors.New("lifecycle: shutdown hook failed")
	ErrHookPanic    = errors.New("lifecycle: hook panicked")
	ErrFrozen       = errors.New("lifecycle: hooks are frozen after startup")
)
