// services/errors.go
package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by every lookup miss.
	ErrNotFound = errors.New("not found")
	// ErrValidation matches any *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationError carries a message safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// OperationError wraps a storage failure. Error() stays generic so the cause
// never reaches end users; Unwrap exposes it for logs.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string { return e.Op + " failed" }

func (e *OperationError) Unwrap() error { return e.Err }
