package model

// Component names used as keys of EntropyBreakdown.Components.
const (
	ComponentCanvas    = "canvas"
	ComponentWebGL     = "webgl"
	ComponentAudio     = "audio"
	ComponentFonts     = "fonts"
	ComponentScreen    = "screen"
	ComponentPlatform  = "platform"
	ComponentUserAgent = "userAgent"
	ComponentTimezone  = "timezone"
	ComponentLanguage  = "language"
	ComponentHardware  = "hardware"
	ComponentPlugins   = "plugins"
	ComponentTouch     = "touch"
	ComponentUnknown   = "unknown"
)

// Components lists every component the entropy engine knows, in display order.
var Components = []string{
	ComponentCanvas,
	ComponentWebGL,
	ComponentAudio,
	ComponentFonts,
	ComponentScreen,
	ComponentPlatform,
	ComponentUserAgent,
	ComponentTimezone,
	ComponentLanguage,
	ComponentHardware,
	ComponentPlugins,
	ComponentTouch,
	ComponentUnknown,
}

// ComponentEntropy is the contribution of one fingerprint component.
type ComponentEntropy struct {
	// Bits is -log2(p) of the observed value, capped per component. Always >= 0.
	Bits float64 `json:"bits"`
}

// EntropyTier classifies total entropy into a uniqueness bucket.
type EntropyTier string

// Entropy tiers from least to most identifying.
const (
	EntropyTierNotVeryUnique   EntropyTier = "not very unique"
	EntropyTierSomewhatUnique  EntropyTier = "somewhat unique"
	EntropyTierUnique          EntropyTier = "unique"
	EntropyTierVeryUnique      EntropyTier = "very unique"
	EntropyTierExtremelyUnique EntropyTier = "extremely unique"
)

// EntropyTiers lists all tiers in ascending order of uniqueness.
var EntropyTiers = []EntropyTier{
	EntropyTierNotVeryUnique,
	EntropyTierSomewhatUnique,
	EntropyTierUnique,
	EntropyTierVeryUnique,
	EntropyTierExtremelyUnique,
}

// Rank returns the position of the tier in EntropyTiers, or -1 when unknown.
func (t EntropyTier) Rank() int {
	for i, tier := range EntropyTiers {
		if tier == t {
			return i
		}
	}
	return -1
}

// Valid reports whether t is one of the defined tiers.
func (t EntropyTier) Valid() bool {
	return t.Rank() >= 0
}

// String implements fmt.Stringer.
func (t EntropyTier) String() string {
	return string(t)
}

// EntropyBreakdown is the derived uniqueness result for one payload.
// It is built once per report and never mutated afterwards.
type EntropyBreakdown struct {
	// Components maps component name to its contribution. Components whose
	// signal was absent are omitted rather than recorded as zero.
	Components map[string]ComponentEntropy `json:"components"`

	// TotalBits is the plain sum of component bits. Summing treats components
	// as statistically independent, which is a simplification kept on purpose:
	// every published uniqueness figure depends on it.
	TotalBits float64 `json:"totalBits"`

	// Tier is the uniqueness classification of TotalBits.
	Tier EntropyTier `json:"tier"`

	// OneIn is a display string such as "1 in 1.2 million". It is derived
	// from TotalBits and must not be parsed back into a number.
	OneIn string `json:"oneIn"`
}

// Bits returns the contribution of a component, or 0 when it was absent.
func (e EntropyBreakdown) Bits(component string) float64 {
	return e.Components[component].Bits
}
