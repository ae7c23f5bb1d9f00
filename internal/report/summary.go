package report

import (
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Summary is the one-line digest of a valuation used in batch listings.
// Error is set instead of the figures when the input could not be valued.
type Summary struct {
	Input        string            `json:"input"`
	ReportID     string            `json:"reportId,omitempty"`
	PayloadHash  string            `json:"hash,omitempty"`
	TotalBits    float64           `json:"totalBits"`
	EntropyTier  model.EntropyTier `json:"entropyTier,omitempty"`
	Persona      model.Persona     `json:"persona,omitempty"`
	AnnualValue  float64           `json:"annualValue"`
	DefenseScore int               `json:"defenseScore"`
	DefenseTier  model.DefenseTier `json:"defenseTier,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Summarize digests a report produced for the named input.
func Summarize(input string, report *model.ValuationReport) Summary {
	return Summary{
		Input:        input,
		ReportID:     report.Meta.ReportID,
		PayloadHash:  report.Meta.PayloadHash,
		TotalBits:    report.Entropy.TotalBits,
		EntropyTier:  report.Entropy.Tier,
		Persona:      report.Valuation.Persona,
		AnnualValue:  report.Valuation.AnnualValue,
		DefenseScore: report.Defenses.Score,
		DefenseTier:  report.Defenses.Tier,
	}
}

// Failed records an input that could not be valued.
func Failed(input string, err error) Summary {
	return Summary{Input: input, Error: err.Error()}
}
