package model

import "time"

// ReportMeta identifies a report and correlates it with its payload.
type ReportMeta struct {
	// ReportID is opaque and unique per assembly.
	ReportID string `json:"reportId"`

	// GeneratedAt is when the report was assembled, in UTC.
	GeneratedAt time.Time `json:"generatedAt"`

	// PayloadHash is the payload's meta.hash. It is the only link back to
	// the raw signals.
	PayloadHash string `json:"hash"`
}

// ValuationReport is the terminal artifact of the engine.
// Once assembled it is treated as immutable by every consumer.
type ValuationReport struct {
	Meta      ReportMeta       `json:"meta"`
	Entropy   EntropyBreakdown `json:"entropy"`
	Valuation Valuation        `json:"valuation"`
	Defenses  DefenseStatus    `json:"defenses"`
}
