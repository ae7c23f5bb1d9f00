package methodology

import (
	"fmt"
	"math"
	"slices"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Validate checks the tables for internal consistency.
// It returns the first problem found, wrapped in ErrInconsistent.
//
// Validate runs once at start-up. A failure here is a deploy defect and the
// process must not start serving with the offending tables.
func (t Tables) Validate() error {
	if err := t.validateComponents(); err != nil {
		return err
	}
	if err := t.validateFontBuckets(); err != nil {
		return err
	}
	if err := t.validateDSPProfiles(); err != nil {
		return err
	}
	if err := t.validateTierMultipliers(); err != nil {
		return err
	}
	return t.validateDefenseWeights()
}

func (t Tables) validateComponents() error {
	for _, name := range model.Components {
		ct, ok := t.Components[name]
		if !ok {
			return fmt.Errorf("%w: no reference table for component %q", ErrInconsistent, name)
		}
		if !positiveFinite(ct.Cap) {
			return fmt.Errorf("%w: component %q: cap must be positive and finite, got %v", ErrInconsistent, name, ct.Cap)
		}
		if !isProbability(ct.Fallback) {
			return fmt.Errorf("%w: component %q: fallback %v is not a probability in (0,1]", ErrInconsistent, name, ct.Fallback)
		}
		for value, p := range ct.Values {
			if !isProbability(p) {
				return fmt.Errorf("%w: component %q: value %q has frequency %v outside (0,1]", ErrInconsistent, name, value, p)
			}
		}
	}
	for name := range t.Components {
		if !slices.Contains(model.Components, name) {
			return fmt.Errorf("%w: reference table for unknown component %q", ErrInconsistent, name)
		}
	}
	return nil
}

func (t Tables) validateFontBuckets() error {
	prev := 0
	for i, b := range t.FontBuckets {
		if b.MaxCount <= prev {
			return fmt.Errorf("%w: font bucket %d: maxCount must be ascending and positive", ErrInconsistent, i)
		}
		if !isProbability(b.Probability) {
			return fmt.Errorf("%w: font bucket %d: probability %v outside (0,1]", ErrInconsistent, i, b.Probability)
		}
		prev = b.MaxCount
	}
	return nil
}

func (t Tables) validateDSPProfiles() error {
	if len(t.DSPProfiles) == 0 {
		return fmt.Errorf("%w: no DSP profiles defined", ErrInconsistent)
	}

	seen := make(map[string]bool, len(t.DSPProfiles))
	hasGeneral := false
	for _, p := range t.DSPProfiles {
		if p.Name == "" {
			return fmt.Errorf("%w: DSP profile with empty name", ErrInconsistent)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate DSP profile %q", ErrInconsistent, p.Name)
		}
		seen[p.Name] = true

		if len(p.Targets) == 0 {
			return fmt.Errorf("%w: DSP profile %q targets no persona", ErrInconsistent, p.Name)
		}
		for _, target := range p.Targets {
			if !target.Valid() {
				return fmt.Errorf("%w: DSP profile %q targets unknown persona %q", ErrInconsistent, p.Name, target)
			}
			if target == model.PersonaGeneral {
				hasGeneral = true
			}
		}
		if !finite(p.MinCPM) || !finite(p.MaxCPM) || p.MinCPM < 0 || p.MaxCPM < p.MinCPM {
			return fmt.Errorf("%w: DSP profile %q: CPM range [%v, %v] is invalid", ErrInconsistent, p.Name, p.MinCPM, p.MaxCPM)
		}
	}

	// Every auction needs at least one bidder.
	if !hasGeneral {
		return fmt.Errorf("%w: no DSP profile targets the %q persona", ErrInconsistent, model.PersonaGeneral)
	}
	return nil
}

func (t Tables) validateTierMultipliers() error {
	prev := 0.0
	for _, tier := range model.EntropyTiers {
		m, ok := t.TierMultipliers[tier]
		if !ok {
			return fmt.Errorf("%w: no bid multiplier for entropy tier %q", ErrInconsistent, tier)
		}
		if !positiveFinite(m) {
			return fmt.Errorf("%w: bid multiplier for %q must be positive and finite, got %v", ErrInconsistent, tier, m)
		}
		// Higher uniqueness must never lower willingness to pay.
		if m < prev {
			return fmt.Errorf("%w: bid multiplier for %q (%v) is lower than the previous tier (%v)", ErrInconsistent, tier, m, prev)
		}
		prev = m
	}
	for tier := range t.TierMultipliers {
		if !tier.Valid() {
			return fmt.Errorf("%w: bid multiplier for unknown entropy tier %q", ErrInconsistent, tier)
		}
	}
	return nil
}

func (t Tables) validateDefenseWeights() error {
	seen := make(map[model.Protection]bool, len(t.DefenseWeights))
	for _, w := range t.DefenseWeights {
		if !w.Protection.Valid() {
			return fmt.Errorf("%w: defense weight for unknown protection %q", ErrInconsistent, w.Protection)
		}
		if seen[w.Protection] {
			return fmt.Errorf("%w: duplicate defense weight for %q", ErrInconsistent, w.Protection)
		}
		seen[w.Protection] = true
		if w.Points < 0 {
			return fmt.Errorf("%w: defense weight for %q is negative", ErrInconsistent, w.Protection)
		}
		if w.Recommendation == "" {
			return fmt.Errorf("%w: defense weight for %q has no recommendation", ErrInconsistent, w.Protection)
		}
	}
	for _, p := range model.Protections {
		if !seen[p] {
			return fmt.Errorf("%w: no defense weight for %q", ErrInconsistent, p)
		}
	}
	return nil
}

func isProbability(p float64) bool {
	return p > 0 && p <= 1
}

// NaN compares false against every bound, so range checks alone let it through.
func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func positiveFinite(v float64) bool {
	return finite(v) && v > 0
}
