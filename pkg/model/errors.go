package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrEmptyModel is returned when the fetched model has no bytes.
	ErrEmptyModel = errors.New("model: empty model file")

	// ErrUnknownBackend is returned for an unsupported backend name.
	ErrUnknownBackend = errors.New("model: unknown backend")

	// ErrMissingInput is returned when Run is called without the model input.
	ErrMissingInput = errors.New("model: missing input tensor")

	// ErrClosed is returned when running a closed session.
	ErrClosed = errors.New("model: session closed")
)

// LoadError wraps a failure to acquire the model with its source.
type LoadError struct {
	Source  string
	Backend Backend
	Err     error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("model [%s]: load %s: %v", e.Backend, e.Source, e.Err)
	}
	return fmt.Sprintf("model: load %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *LoadError) Unwrap() error {
	return e.Err
}
