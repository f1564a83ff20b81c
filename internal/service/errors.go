package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidationFailed is matched by *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrStoreFailure is matched by *StoreError.
	ErrStoreFailure = errors.New("store failure")

	// ErrInvalidRequestID is returned when a ride request ID is empty.
	ErrInvalidRequestID = errors.New("invalid request id")
)

// ValidationError carries every violation found for a candidate.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(e.Violations, " "))
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// StoreError wraps a persistence failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStoreFailure, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is ErrStoreFailure.
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreFailure
}
