package config

import (
	"fmt"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// ComponentOverride adjusts the reference table of one entropy component.
// Nil fields keep the built-in value; Values entries are merged into the
// built-in frequencies.
type ComponentOverride struct {
	Cap      *float64           `yaml:"cap,omitempty"`
	Fallback *float64           `yaml:"fallback,omitempty"`
	Values   map[string]float64 `yaml:"values,omitempty"`
}

// File represents the structure of the .panopticlick configuration file.
// Every section is optional.
type File struct {
	// Components merges reference frequencies per component name.
	Components map[string]ComponentOverride `yaml:"components,omitempty"`

	// FontBuckets replaces the font-count buckets when non-empty.
	FontBuckets []methodology.FontBucket `yaml:"fontBuckets,omitempty"`

	// DSPProfiles replaces the simulated bidder set when non-empty.
	DSPProfiles []methodology.DSPProfile `yaml:"dspProfiles,omitempty"`

	// TierMultipliers overrides the bid multiplier of the listed tiers.
	TierMultipliers map[model.EntropyTier]float64 `yaml:"tierMultipliers,omitempty"`

	// DefenseWeights overrides points and advice per protection.
	DefenseWeights []methodology.DefenseWeight `yaml:"defenseWeights,omitempty"`
}

// Apply returns base with the overrides applied, then validated.
// base itself is never modified. A nil File validates and returns a copy of base.
func (cf *File) Apply(base methodology.Tables) (methodology.Tables, error) {
	out := base.Clone()
	if cf != nil {
		cf.applyComponents(&out)
		if len(cf.FontBuckets) > 0 {
			out.FontBuckets = append([]methodology.FontBucket(nil), cf.FontBuckets...)
		}
		if len(cf.DSPProfiles) > 0 {
			out.DSPProfiles = append([]methodology.DSPProfile(nil), cf.DSPProfiles...)
		}
		for tier, m := range cf.TierMultipliers {
			out.TierMultipliers[tier] = m
		}
		cf.applyDefenseWeights(&out)
	}

	if err := out.Validate(); err != nil {
		return methodology.Tables{}, fmt.Errorf("methodology override: %w", err)
	}
	return out, nil
}

func (cf *File) applyComponents(t *methodology.Tables) {
	for name, o := range cf.Components {
		ct := t.Components[name]
		if o.Cap != nil {
			ct.Cap = *o.Cap
		}
		if o.Fallback != nil {
			ct.Fallback = *o.Fallback
		}
		if len(o.Values) > 0 {
			if ct.Values == nil {
				ct.Values = make(map[string]float64, len(o.Values))
			}
			for k, v := range o.Values {
				ct.Values[k] = v
			}
		}
		t.Components[name] = ct
	}
}

func (cf *File) applyDefenseWeights(t *methodology.Tables) {
	for _, w := range cf.DefenseWeights {
		replaced := false
		for i := range t.DefenseWeights {
			if t.DefenseWeights[i].Protection != w.Protection {
				continue
			}
			if w.Recommendation == "" {
				w.Recommendation = t.DefenseWeights[i].Recommendation
			}
			t.DefenseWeights[i] = w
			replaced = true
			break
		}
		if !replaced {
			t.DefenseWeights = append(t.DefenseWeights, w)
		}
	}
}

// Tables returns the built-in methodology with the overrides of cf applied.
func Tables(cf *File) (methodology.Tables, error) {
	return cf.Apply(methodology.Default())
}
