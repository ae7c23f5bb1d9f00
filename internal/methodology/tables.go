// Package methodology holds the static tables the valuation engine is
// calibrated with: reference-population frequencies, DSP bidder profiles,
// entropy tier multipliers and defense point weights.
//
// Tables are loaded once at start-up, validated, and then passed read-only
// into each component. Changing a value here is a methodology change that
// alters every published figure, so none of them is a per-request parameter.
package methodology

import (
	"maps"
	"slices"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// ComponentTable describes the reference population for one component.
type ComponentTable struct {
	// Cap is the maximum bits the component may contribute.
	Cap float64 `yaml:"cap"`

	// Fallback is the probability assumed for a value absent from Values.
	Fallback float64 `yaml:"fallback"`

	// Values maps an observed value key to its population frequency.
	Values map[string]float64 `yaml:"values,omitempty"`
}

// FontBucket approximates the frequency of an unlisted font set by its size.
// A font list with at most MaxCount entries falls into the bucket.
type FontBucket struct {
	MaxCount    int     `yaml:"maxCount"`
	Probability float64 `yaml:"probability"`
}

// DSPProfile is one simulated demand-side platform.
type DSPProfile struct {
	Name     string          `yaml:"name"`
	Interest string          `yaml:"interest"`
	Targets  []model.Persona `yaml:"targets"`
	MinCPM   float64         `yaml:"minCPM"`
	MaxCPM   float64         `yaml:"maxCPM"`
}

// TargetsPersona reports whether the profile bids on persona p. A profile that
// targets the general persona bids on everyone.
func (d DSPProfile) TargetsPersona(p model.Persona) bool {
	for _, t := range d.Targets {
		if t == p || t == model.PersonaGeneral {
			return true
		}
	}
	return false
}

// DefenseWeight is the point value and fix-it advice for one protection.
type DefenseWeight struct {
	Protection     model.Protection `yaml:"protection"`
	Points         int              `yaml:"points"`
	Recommendation string           `yaml:"recommendation"`
}

// Tables is the complete methodology.
type Tables struct {
	Components      map[string]ComponentTable     `yaml:"components"`
	FontBuckets     []FontBucket                  `yaml:"fontBuckets"`
	DSPProfiles     []DSPProfile                  `yaml:"dspProfiles"`
	TierMultipliers map[model.EntropyTier]float64 `yaml:"tierMultipliers"`
	DefenseWeights  []DefenseWeight               `yaml:"defenseWeights"`
}

// Clone returns a deep copy so overrides never touch the defaults.
func (t Tables) Clone() Tables {
	out := Tables{
		Components:      make(map[string]ComponentTable, len(t.Components)),
		FontBuckets:     slices.Clone(t.FontBuckets),
		DSPProfiles:     make([]DSPProfile, len(t.DSPProfiles)),
		TierMultipliers: maps.Clone(t.TierMultipliers),
		DefenseWeights:  slices.Clone(t.DefenseWeights),
	}
	for name, ct := range t.Components {
		ct.Values = maps.Clone(ct.Values)
		out.Components[name] = ct
	}
	for i, p := range t.DSPProfiles {
		p.Targets = slices.Clone(p.Targets)
		out.DSPProfiles[i] = p
	}
	return out
}

// Component returns the table for a component name.
func (t Tables) Component(name string) (ComponentTable, bool) {
	ct, ok := t.Components[name]
	return ct, ok
}

// Multiplier returns the bid multiplier for an entropy tier.
// Unknown tiers get 1, which only happens for tables that skipped Validate.
func (t Tables) Multiplier(tier model.EntropyTier) float64 {
	if m, ok := t.TierMultipliers[tier]; ok {
		return m
	}
	return 1
}
