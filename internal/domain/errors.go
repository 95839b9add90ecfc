package domain

import (
	"errors"
	"fmt"
)

var (
	ErrModNotFound     = errors.New("mod not found")
	ErrGameNotFound    = errors.New("game not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrDependencyLoop  = errors.New("circular dependency detected")
	ErrAuthRequired    = errors.New("authentication required")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrParse           = errors.New("malformed profile document")
	ErrPathResolution  = errors.New("path not relative to mods directory")
	ErrIO              = errors.New("filesystem operation failed")
	ErrValidation      = errors.New("invalid request")
)

// ValidationError rejects a request before anything is mutated.
// The reason is meant to be shown to the user as-is.
type ValidationError struct {
	Reason string
}

// NewValidationError formats a ValidationError
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// IOError wraps a failed disk write, rename or delete.
type IOError struct {
	Op   string // e.g. "write", "rename", "remove"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrIO) match
func (e *IOError) Is(target error) bool {
	return target == ErrIO
}
