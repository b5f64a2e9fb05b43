package utils

import (
	"errors"
	"fmt"
)

// Per-item failure kinds. Everything except ErrConfiguration is recoverable and
// is counted in run diagnostics rather than aborting the batch.
var (
	ErrExtractionMiss     = errors.New("no aspect extracted")
	ErrUnmappedTopic      = errors.New("aspect has no topic mapping")
	ErrMalformedTimestamp = errors.New("malformed review timestamp")
	ErrServiceUnavailable = errors.New("model service unavailable")
	ErrConfiguration      = errors.New("invalid configuration")
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

// ConfigError tags err as a startup configuration failure.
func ConfigError(op, msg string, err error) error {
	if err == nil {
		return &AppError{Op: op, Msg: msg, Err: ErrConfiguration}
	}
	return &AppError{Op: op, Msg: msg, Err: errors.Join(ErrConfiguration, err)}
}

// Unavailable tags err as a model backend failure that exhausted its retries.
func Unavailable(op string, err error) error {
	return &AppError{Op: op, Msg: "backend failed", Err: errors.Join(ErrServiceUnavailable, err)}
}
