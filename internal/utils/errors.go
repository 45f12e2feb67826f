package utils

import (
	"errors"
	"fmt"
)

// Lookup failures shared across engines. Batch operations test these with
// errors.Is and skip the offending country instead of aborting.
var (
	ErrCountryNotFound = errors.New("country not found")
	ErrNoBaselineData  = errors.New("no baseline health data")
	ErrNoHistory       = errors.New("no observation history")
)

// AppError wraps an operation, human-facing message, and underlying error.
type AppError struct {
	Op  string
	Msg string
	Err error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}
