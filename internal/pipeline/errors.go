package pipeline

import (
	"errors"
	"fmt"
)

// ErrHashMismatch is returned by the validate step when hash verification is
// enabled and meta.hash differs from the payload's computed digest.
var ErrHashMismatch = errors.New("payload hash does not match its signals")

// ErrReportID is returned when no report id could be generated.
var ErrReportID = errors.New("failed to generate report id")

// AssemblyError reports which step aborted an assembly.
type AssemblyError struct {
	// Step is the name of the failing step.
	Step string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *AssemblyError) Error() string {
	return fmt.Sprintf("report assembly failed at %s step: %v", e.Step, e.Err)
}

// Unwrap returns the underlying failure for errors.Is and errors.As.
func (e *AssemblyError) Unwrap() error {
	return e.Err
}
