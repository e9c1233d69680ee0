package handler

import (
	"errors"
	"fmt"
)

var (
	ErrNextCalledTwice = errors.New("handler: next called more than once")
	ErrNilHandler      = errors.New("handler: nil handler")
	ErrNilMiddleware   = errors.New("handler: nil middleware")
)

// PanicError carries a value recovered from a panicking link.
type PanicError struct {
	value any
	stack []byte
}

// NewPanicError wraps a recovered value and the stack captured at recovery.
func NewPanicError(value any, stack []byte) *PanicError {
	return &PanicError{value: value, stack: stack}
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Value returns the original panic value.
func (e *PanicError) Value() any {
	return e.value
}

// Stack returns the stack trace captured at the panic point.
func (e *PanicError) Stack() []byte {
	return e.stack
}

// Unwrap allows errors.Is/As to see through panics raised with an error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.value.(error); ok {
		return err
	}
	return nil
}
