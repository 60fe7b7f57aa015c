// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for faultstack.
// All errors here surface at setup/teardown time only: the fault path
// itself has no recoverable error category.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrRegionExhausted   = fmt.Errorf("diagnostic region could not be allocated")
	ErrRegionTooSmall    = fmt.Errorf("diagnostic region below platform minimum")
	ErrAlreadyInstalled  = fmt.Errorf("diagnostic region already installed on this thread")
	ErrNotInstalled      = fmt.Errorf("no diagnostic region installed on this thread")
	ErrHandlerRegistered = fmt.Errorf("fault handler still registered")
	ErrNotSupported      = fmt.Errorf("operation not supported on this platform")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
)

// ErrorCode represents specific error conditions in the library.
type ErrorCode int

const (
	ErrCodeOK ErrorCode = iota
	ErrCodeAllocation   // diagnostic region could not be obtained
	ErrCodeRegistration // platform rejected handler/stack registration
	ErrCodeMisuse       // out-of-order teardown, double install, cross-thread use
	ErrCodeNotSupported
	ErrCodeInternal
)

// Error represents a structured error with code and context.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Context) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (context: %+v)", e.Message, e.Context)
}

// Unwrap maps structured codes onto the sentinel errors so callers can
// test with errors.Is.
func (e *Error) Unwrap() error {
	switch e.Code {
	case ErrCodeAllocation:
		return ErrRegionExhausted
	case ErrCodeNotSupported:
		return ErrNotSupported
	default:
		return nil
	}
}

// NewError creates a new structured error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithContext adds context information to the error.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}
