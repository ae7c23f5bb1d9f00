package model

import (
	"strings"
	"time"
)

// FingerprintPayload is a single snapshot of browser and device signals
// produced by the client-side collector.
//
// The payload is owned by the collector and only borrowed by the engine:
// nothing in this module mutates a payload after it has been decoded.
// Every signal group is optional, and every primitive inside a group is
// either a pointer or an empty-able string/slice. Absence always means
// "unknown" and must never be replaced with a default value downstream.
type FingerprintPayload struct {
	// Meta is the collection envelope. It is the only required part of a payload.
	Meta Meta `json:"meta"`

	// Hardware holds display and device-class signals.
	Hardware *Hardware `json:"hardware,omitempty"`

	// Software holds navigator, locale and font signals.
	Software *Software `json:"software,omitempty"`

	// Capabilities holds rendering fingerprints (canvas, WebGL, audio).
	Capabilities *Capabilities `json:"capabilities,omitempty"`

	// Network holds connection-level signals such as DNS and WebRTC behavior.
	Network *Network `json:"network,omitempty"`

	// Behavior holds signals observed from installed protections and tooling.
	Behavior *Behavior `json:"behavior,omitempty"`
}

// Meta is the envelope that ties a payload to exactly one collection event.
type Meta struct {
	// Hash is a stable content digest of the normalized signal set.
	// See Digest for the reference algorithm.
	Hash string `json:"hash"`

	// CollectedAt is when the collector captured the signals.
	CollectedAt time.Time `json:"collectedAt"`
}

// Screen describes the primary display.
type Screen struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	ColorDepth int     `json:"colorDepth,omitempty"`
	PixelRatio float64 `json:"pixelRatio,omitempty"`
}

// Hardware groups device-class signals.
type Hardware struct {
	Screen              *Screen  `json:"screen,omitempty"`
	HardwareConcurrency *int     `json:"hardwareConcurrency,omitempty"`
	DeviceMemory        *float64 `json:"deviceMemory,omitempty"`
	MaxTouchPoints      *int     `json:"maxTouchPoints,omitempty"`
}

// Software groups navigator and locale signals.
type Software struct {
	UserAgent  string   `json:"userAgent,omitempty"`
	Platform   string   `json:"platform,omitempty"`
	Language   string   `json:"language,omitempty"`
	Languages  []string `json:"languages,omitempty"`
	Timezone   string   `json:"timezone,omitempty"`
	Fonts      []string `json:"fonts,omitempty"`
	Plugins    []string `json:"plugins,omitempty"`
	Extensions []string `json:"extensions,omitempty"`
	DoNotTrack *bool    `json:"doNotTrack,omitempty"`

	// Extra carries collector signals this engine has no reference table for.
	// They are scored in the "unknown" entropy bucket.
	Extra map[string]string `json:"extra,omitempty"`
}

// Capabilities groups rendering fingerprints.
type Capabilities struct {
	CanvasHash    string `json:"canvasHash,omitempty"`
	WebGLVendor   string `json:"webglVendor,omitempty"`
	WebGLRenderer string `json:"webglRenderer,omitempty"`
	WebGLHash     string `json:"webglHash,omitempty"`
	AudioHash     string `json:"audioHash,omitempty"`
}

// Network groups connection-level signals.
type Network struct {
	ConnectionType string `json:"connectionType,omitempty"`

	// SecureDNS is true when DNS-over-HTTPS or DNS-over-TLS was confirmed.
	SecureDNS *bool `json:"secureDNS,omitempty"`

	// WebRTCLeak is true when WebRTC exposed a local or public address.
	// An explicit false means the leak test ran and nothing leaked.
	WebRTCLeak *bool    `json:"webrtcLeak,omitempty"`
	LocalIPs   []string `json:"localIPs,omitempty"`
}

// Behavior groups signals observed from protections and tooling.
type Behavior struct {
	AdBlocker                *bool    `json:"adBlocker,omitempty"`
	TrackerBlocking          *bool    `json:"trackerBlocking,omitempty"`
	CanvasBlocked            *bool    `json:"canvasBlocked,omitempty"`
	WebGLBlocked             *bool    `json:"webglBlocked,omitempty"`
	FingerprintRandomization *bool    `json:"fingerprintRandomization,omitempty"`
	DevToolsOpen             *bool    `json:"devToolsOpen,omitempty"`
	PrivacyTools             []string `json:"privacyTools,omitempty"`
}

// Validate checks the collection envelope. Individual signals are never
// validated: a missing or odd signal is unknown input, not malformed input.
func (p *FingerprintPayload) Validate() error {
	if p == nil {
		return &ValidationError{Field: "payload", Reason: "payload is nil"}
	}
	if strings.TrimSpace(p.Meta.Hash) == "" {
		return &ValidationError{Field: "meta.hash", Reason: "required field is missing"}
	}
	if p.Meta.CollectedAt.IsZero() {
		return &ValidationError{Field: "meta.collectedAt", Reason: "required field is missing"}
	}
	return nil
}

// IsTrue reports whether an optional boolean signal is present and true.
func IsTrue(b *bool) bool {
	return b != nil && *b
}

// IsFalse reports whether an optional boolean signal is present and false.
func IsFalse(b *bool) bool {
	return b != nil && !*b
}

// Bool returns a pointer to b. It keeps payload literals readable.
func Bool(b bool) *bool {
	return &b
}

// Int returns a pointer to i.
func Int(i int) *int {
	return &i
}

// Float returns a pointer to f.
func Float(f float64) *float64 {
	return &f
}
