// Package model defines the data structures shared by the valuation engine.
//
// This package contains the following main types:
//   - FingerprintPayload: the input snapshot of browser and device signals
//   - EntropyBreakdown: per-component uniqueness in bits
//   - Valuation: the simulated auction outcome
//   - DefenseStatus: the protection score and recommendations
//   - ValuationReport: the terminal artifact combining all of the above
//
// Models live in their own package so that entropy, persona, rtb, defense,
// pipeline and report can share them without import cycles. Every type is
// JSON-serializable; the JSON form is the wire format of both input and output.
package model
