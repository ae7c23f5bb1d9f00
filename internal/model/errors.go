package model

import (
	"errors"
	"fmt"
)

// ErrInvalidPayload is the sentinel wrapped by every ValidationError.
// Callers can test for malformed input with errors.Is without caring
// which field was at fault.
var ErrInvalidPayload = errors.New("invalid fingerprint payload")

// ValidationError describes a payload that cannot be valued.
// The engine never guesses missing envelope values.
type ValidationError struct {
	// Field is the JSON path of the offending field, e.g. "meta.hash".
	Field string

	// Reason is a short human-readable explanation.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidPayload, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidPayload.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidPayload
}
