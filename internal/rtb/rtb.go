// Package rtb simulates a real-time-bidding auction for a visitor profile.
//
// Each DSP profile that targets the visitor's persona (or everyone) places one
// bid drawn uniformly from its CPM range and scaled by the entropy tier
// multiplier: a more identifiable visitor is worth more to every bidder.
package rtb

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Annual extrapolation constants. They are part of the published methodology.
const (
	PagesPerDay        = 50
	DaysPerYear        = 365
	ImpressionsPerPage = 3
)

// Simulator runs auctions against a fixed set of DSP profiles.
type Simulator struct {
	tables methodology.Tables
	source Source
}

// NewSimulator returns a Simulator over the tables' DSP profiles.
func NewSimulator(tables methodology.Tables, source Source) *Simulator {
	return &Simulator{tables: tables, source: source}
}

// Simulate runs one auction. Profiles draw in table order; bids are returned
// highest first with ties kept in table order.
func (s *Simulator) Simulate(persona model.Persona, tier model.EntropyTier) (model.RTBSimulationResult, error) {
	multiplier := s.tables.Multiplier(tier)

	var bids []model.RTBBid
	for _, profile := range s.tables.DSPProfiles {
		if !profile.TargetsPersona(persona) {
			continue
		}
		r, err := s.source.Float64()
		if err != nil {
			return model.RTBSimulationResult{}, fmt.Errorf("bid for %s: %w", profile.Name, err)
		}
		bids = append(bids, model.RTBBid{
			Bidder:   profile.Name,
			Amount:   BidAmount(profile, r, multiplier),
			Interest: profile.Interest,
		})
	}
	if len(bids) == 0 {
		return model.RTBSimulationResult{}, fmt.Errorf("%w: %s", ErrNoBidders, persona)
	}

	slices.SortStableFunc(bids, func(a, b model.RTBBid) int {
		return cmp.Compare(b.Amount, a.Amount)
	})

	return model.RTBSimulationResult{Bids: bids, Winner: bids[0]}, nil
}

// BidAmount places r in [0, 1) within the profile's CPM range and applies
// the tier multiplier.
func BidAmount(profile methodology.DSPProfile, r, multiplier float64) float64 {
	return (profile.MinCPM + r*(profile.MaxCPM-profile.MinCPM)) * multiplier
}

// Value summarizes an auction into the report's valuation section.
func Value(persona model.Persona, result model.RTBSimulationResult) model.Valuation {
	avg := AverageCPM(result.Bids)
	return model.Valuation{
		Persona:     persona,
		Winner:      result.Winner,
		Bidders:     result.Bids,
		AverageCPM:  avg,
		AnnualValue: AnnualValue(avg),
	}
}

// AverageCPM is the arithmetic mean of the bid amounts, 0 for no bids.
func AverageCPM(bids []model.RTBBid) float64 {
	if len(bids) == 0 {
		return 0
	}
	sum := 0.0
	for _, b := range bids {
		sum += b.Amount
	}
	return sum / float64(len(bids))
}

// AnnualValue extrapolates a CPM to a year of impressions.
func AnnualValue(cpm float64) float64 {
	return cpm / 1000 * PagesPerDay * DaysPerYear * ImpressionsPerPage
}
