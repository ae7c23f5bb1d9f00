package model

import (
	"encoding/json"
	"fmt"
	"io"
)

// Submission is what a collector sends: the payload itself with the
// client-side protection test results alongside it.
type Submission struct {
	FingerprintPayload

	// TestResults is optional. When absent, only payload signals can
	// confirm protections.
	TestResults TestResults `json:"testResults"`
}

// DecodeSubmission reads one submission from r. Malformed JSON is reported
// as a ValidationError so callers treat it like any other invalid payload.
// The envelope is not validated here.
func DecodeSubmission(r io.Reader) (*Submission, error) {
	var s Submission
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, &ValidationError{
			Field:  "payload",
			Reason: fmt.Sprintf("malformed JSON: %v", err),
		}
	}
	return &s, nil
}
