package rtb

import "errors"

var (
	// ErrRandomSource is returned when the random source cannot produce a value.
	ErrRandomSource = errors.New("random source failure")

	// ErrNoBidders is returned when no DSP profile bids on a persona.
	// Validated tables always carry a general profile, so this indicates
	// tables that skipped validation.
	ErrNoBidders = errors.New("no DSP profile bids on persona")
)
