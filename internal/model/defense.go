package model

// Protection identifies one privacy defense the scorer knows about.
type Protection string

// Known protections.
const (
	ProtectionCanvasBlocking           Protection = "canvas-blocking"
	ProtectionWebGLProtection          Protection = "webgl-protection"
	ProtectionTrackerBlocking          Protection = "tracker-blocking"
	ProtectionFingerprintRandomization Protection = "fingerprint-randomization"
	ProtectionAdBlocking               Protection = "ad-blocking"
	ProtectionSecureDNS                Protection = "secure-dns"
	ProtectionWebRTCProtection         Protection = "webrtc-protection"
)

// Protections lists every known protection.
var Protections = []Protection{
	ProtectionCanvasBlocking,
	ProtectionWebGLProtection,
	ProtectionTrackerBlocking,
	ProtectionFingerprintRandomization,
	ProtectionAdBlocking,
	ProtectionSecureDNS,
	ProtectionWebRTCProtection,
}

// Valid reports whether p is a known protection.
func (p Protection) Valid() bool {
	for _, known := range Protections {
		if known == p {
			return true
		}
	}
	return false
}

// DefenseTier classifies a defense score.
type DefenseTier string

// Defense tiers from weakest to strongest.
const (
	DefenseTierExposed   DefenseTier = "exposed"
	DefenseTierBasic     DefenseTier = "basic"
	DefenseTierProtected DefenseTier = "protected"
	DefenseTierHardened  DefenseTier = "hardened"
	DefenseTierFortress  DefenseTier = "fortress"
)

// String implements fmt.Stringer.
func (t DefenseTier) String() string {
	return string(t)
}

// DefenseStatus is the defense part of a report.
type DefenseStatus struct {
	// Score is in [0, 100].
	Score int `json:"score"`

	// Tier is the fixed-threshold classification of Score.
	Tier DefenseTier `json:"tier"`

	// Recommendations has one entry per missing protection, highest impact first.
	Recommendations []string `json:"recommendations"`
}

// TestResults carries the outcome of the client-side protection tests.
// A nil field means the test did not run; only true confirms a protection.
type TestResults struct {
	CanvasBlocking           *bool `json:"canvasBlocking,omitempty"`
	WebGLProtection          *bool `json:"webglProtection,omitempty"`
	TrackerBlocking          *bool `json:"trackerBlocking,omitempty"`
	FingerprintRandomization *bool `json:"fingerprintRandomization,omitempty"`
	AdBlocking               *bool `json:"adBlocking,omitempty"`
	SecureDNS                *bool `json:"secureDNS,omitempty"`
	WebRTCProtection         *bool `json:"webrtcProtection,omitempty"`
}

// Confirmed reports whether the test for p ran and passed.
func (r TestResults) Confirmed(p Protection) bool {
	switch p {
	case ProtectionCanvasBlocking:
		return IsTrue(r.CanvasBlocking)
	case ProtectionWebGLProtection:
		return IsTrue(r.WebGLProtection)
	case ProtectionTrackerBlocking:
		return IsTrue(r.TrackerBlocking)
	case ProtectionFingerprintRandomization:
		return IsTrue(r.FingerprintRandomization)
	case ProtectionAdBlocking:
		return IsTrue(r.AdBlocking)
	case ProtectionSecureDNS:
		return IsTrue(r.SecureDNS)
	case ProtectionWebRTCProtection:
		return IsTrue(r.WebRTCProtection)
	default:
		return false
	}
}
