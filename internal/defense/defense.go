// Package defense scores how well a browser resists fingerprinting and
// tracking, and tells the user what to fix.
package defense

import (
	"cmp"
	"slices"

	"github.com/panopticlick/Panopticlick-sub001/internal/methodology"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Tier thresholds on the score, inclusive at the lower bound.
const (
	ThresholdFortress  = 90
	ThresholdHardened  = 70
	ThresholdProtected = 50
	ThresholdBasic     = 25
)

// Score sums the points of every confirmed protection, clamps the result to
// [0, 100] and lists a recommendation for each protection that is missing,
// highest point value first. A protection is confirmed when its client-side
// test passed or the payload itself carries the confirming signal.
func Score(p *model.FingerprintPayload, results model.TestResults, weights []methodology.DefenseWeight) model.DefenseStatus {
	score := 0
	var missing []methodology.DefenseWeight

	for _, w := range weights {
		if results.Confirmed(w.Protection) || signaled(p, w.Protection) {
			score += w.Points
			continue
		}
		missing = append(missing, w)
	}

	score = min(max(score, 0), 100)

	slices.SortStableFunc(missing, func(a, b methodology.DefenseWeight) int {
		return cmp.Compare(b.Points, a.Points)
	})
	recommendations := make([]string, 0, len(missing))
	for _, w := range missing {
		recommendations = append(recommendations, w.Recommendation)
	}

	return model.DefenseStatus{
		Score:           score,
		Tier:            Classify(score),
		Recommendations: recommendations,
	}
}

// Classify maps a score to a defense tier.
func Classify(score int) model.DefenseTier {
	switch {
	case score >= ThresholdFortress:
		return model.DefenseTierFortress
	case score >= ThresholdHardened:
		return model.DefenseTierHardened
	case score >= ThresholdProtected:
		return model.DefenseTierProtected
	case score >= ThresholdBasic:
		return model.DefenseTierBasic
	default:
		return model.DefenseTierExposed
	}
}

// signaled reports whether the payload itself confirms a protection.
// A missing signal never confirms anything.
func signaled(p *model.FingerprintPayload, protection model.Protection) bool {
	if p == nil {
		return false
	}
	b, n := p.Behavior, p.Network

	switch protection {
	case model.ProtectionCanvasBlocking:
		return b != nil && model.IsTrue(b.CanvasBlocked)
	case model.ProtectionWebGLProtection:
		return b != nil && model.IsTrue(b.WebGLBlocked)
	case model.ProtectionTrackerBlocking:
		return b != nil && model.IsTrue(b.TrackerBlocking)
	case model.ProtectionFingerprintRandomization:
		return b != nil && model.IsTrue(b.FingerprintRandomization)
	case model.ProtectionAdBlocking:
		return b != nil && model.IsTrue(b.AdBlocker)
	case model.ProtectionSecureDNS:
		return n != nil && model.IsTrue(n.SecureDNS)
	case model.ProtectionWebRTCProtection:
		// Only a leak test that ran and found nothing counts.
		return n != nil && model.IsFalse(n.WebRTCLeak)
	default:
		return false
	}
}
