// Package entropy converts fingerprint components into information-theoretic
// uniqueness scores.
//
// For every component with an observed value the engine looks up the
// probability p that a random browser in the reference population shows the
// same value and scores it as -log2(p) bits, clamped to the component's cap.
// Absent signals contribute nothing: absence can neither raise nor lower the
// score. Compute is pure, deterministic and total.
package entropy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Tier thresholds on total bits, inclusive at the lower bound.
const (
	ThresholdExtremelyUnique = 50.0
	ThresholdVeryUnique      = 40.0
	ThresholdUnique          = 30.0
	ThresholdSomewhatUnique  = 20.0
)

// valueKey extracts the lookup key of a component, reporting false when the
// signal is absent.
type valueKey func(p *model.FingerprintPayload) (string, bool)

// keyed lists the components scored by exact-value lookup, in display order.
// Fonts and unknown signals have their own approximation rules.
var keyed = []struct {
	component string
	key       valueKey
}{
	{model.ComponentCanvas, canvasKey},
	{model.ComponentWebGL, webglKey},
	{model.ComponentAudio, audioKey},
	{model.ComponentScreen, screenKey},
	{model.ComponentPlatform, platformKey},
	{model.ComponentUserAgent, userAgentKey},
	{model.ComponentTimezone, timezoneKey},
	{model.ComponentLanguage, languageKey},
	{model.ComponentHardware, hardwareKey},
	{model.ComponentPlugins, pluginsKey},
	{model.ComponentTouch, touchKey},
}

// Compute returns the entropy breakdown of a payload against the reference
// tables. A nil payload yields an empty breakdown.
func Compute(p *model.FingerprintPayload, tables methodology.Tables) model.EntropyBreakdown {
	components := make(map[string]model.ComponentEntropy)

	if p != nil {
		for _, k := range keyed {
			value, ok := k.key(p)
			if !ok {
				continue
			}
			table, ok := tables.Component(k.component)
			if !ok {
				continue
			}
			components[k.component] = model.ComponentEntropy{Bits: lookupBits(table, value)}
		}

		if bits, ok := fontBits(p, tables); ok {
			components[model.ComponentFonts] = model.ComponentEntropy{Bits: bits}
		}
		if bits, ok := unknownBits(p, tables); ok {
			components[model.ComponentUnknown] = model.ComponentEntropy{Bits: bits}
		}
	}

	// Summed in a fixed order so equal payloads give bit-identical totals.
	total := 0.0
	for _, name := range model.Components {
		total += components[name].Bits
	}

	return model.EntropyBreakdown{
		Components: components,
		TotalBits:  total,
		Tier:       Classify(total),
		OneIn:      OneIn(total),
	}
}

// Bits converts a population frequency into capped bits of surprisal.
// Frequencies at or above 1 yield 0 bits; non-positive frequencies yield the cap.
func Bits(probability, maxBits float64) float64 {
	if probability <= 0 {
		return maxBits
	}
	if probability >= 1 {
		return 0
	}
	return math.Min(-math.Log2(probability), maxBits)
}

// Classify maps total bits to a uniqueness tier.
func Classify(totalBits float64) model.EntropyTier {
	switch {
	case totalBits >= ThresholdExtremelyUnique:
		return model.EntropyTierExtremelyUnique
	case totalBits >= ThresholdVeryUnique:
		return model.EntropyTierVeryUnique
	case totalBits >= ThresholdUnique:
		return model.EntropyTierUnique
	case totalBits >= ThresholdSomewhatUnique:
		return model.EntropyTierSomewhatUnique
	default:
		return model.EntropyTierNotVeryUnique
	}
}

// populationScales names the magnitudes used by OneIn, largest first.
var populationScales = []struct {
	value float64
	name  string
}{
	{1e18, "quintillion"},
	{1e15, "quadrillion"},
	{1e12, "trillion"},
	{1e9, "billion"},
	{1e6, "million"},
	{1e3, "thousand"},
}

// maxNamedPopulation is the largest population OneIn spells out by name.
// Beyond it the size is rendered as a power of two.
const maxNamedPopulation = 1e21

// OneIn renders 2^bits as an approximate population size, e.g.
// "1 in 1.2 million". The result is for display only.
func OneIn(bits float64) string {
	if bits <= 0 {
		return "1 in 1"
	}
	n := math.Exp2(bits)
	if n >= maxNamedPopulation {
		return "1 in 2^" + strconv.FormatFloat(bits, 'f', 1, 64)
	}
	for _, s := range populationScales {
		if n >= s.value {
			return fmt.Sprintf("1 in %s %s", strconv.FormatFloat(n/s.value, 'f', 1, 64), s.name)
		}
	}
	return fmt.Sprintf("1 in %d", int64(math.Round(n)))
}

func lookupBits(table methodology.ComponentTable, value string) float64 {
	if p, ok := table.Values[value]; ok {
		return Bits(p, table.Cap)
	}
	return Bits(table.Fallback, table.Cap)
}

// fontBits scores the font list. An exact list listed in the table wins;
// otherwise the list is approximated by its size, since larger installed
// font sets are rarer.
func fontBits(p *model.FingerprintPayload, tables methodology.Tables) (float64, bool) {
	fonts := p.NormalizedFonts()
	if len(fonts) == 0 {
		return 0, false
	}
	table, ok := tables.Component(model.ComponentFonts)
	if !ok {
		return 0, false
	}

	if freq, ok := table.Values[strings.Join(fonts, ",")]; ok {
		return Bits(freq, table.Cap), true
	}
	for _, b := range tables.FontBuckets {
		if len(fonts) <= b.MaxCount {
			return Bits(b.Probability, table.Cap), true
		}
	}
	return Bits(table.Fallback, table.Cap), true
}

// unknownBits scores collector signals the engine has no table for.
// Each contributes the unknown fallback surprisal; the bucket total is capped.
func unknownBits(p *model.FingerprintPayload, tables methodology.Tables) (float64, bool) {
	if p.Software == nil {
		return 0, false
	}
	table, ok := tables.Component(model.ComponentUnknown)
	if !ok {
		return 0, false
	}

	observed := 0
	for _, v := range p.Software.Extra {
		if strings.TrimSpace(v) != "" {
			observed++
		}
	}
	if observed == 0 {
		return 0, false
	}

	total := float64(observed) * Bits(table.Fallback, table.Cap)
	return math.Min(total, table.Cap), true
}
