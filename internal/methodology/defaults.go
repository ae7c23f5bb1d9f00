package methodology

import "github.com/panopticlick/Panopticlick-sub001/internal/model"

// Per-component entropy caps in bits. A single absurdly rare value must not
// dominate the total and produce an implausible uniqueness claim.
const (
	CapCanvas    = 25.0
	CapWebGL     = 20.0
	CapAudio     = 18.0
	CapFonts     = 22.0
	CapScreen    = 12.0
	CapPlatform  = 18.0
	CapUserAgent = 18.0
	CapTimezone  = 6.0
	CapLanguage  = 8.0
	CapHardware  = 8.0
	CapPlugins   = 12.0
	CapTouch     = 4.0
	CapUnknown   = 4.0
)

// Default returns the built-in methodology. Each call returns a fresh copy.
//
// Frequencies approximate a desktop-heavy reference population of the kind
// published by browser-uniqueness studies. They are deliberately coarse:
// the site teaches orders of magnitude, not exact census numbers.
func Default() Tables {
	return Tables{
		Components:      defaultComponents(),
		FontBuckets:     defaultFontBuckets(),
		DSPProfiles:     defaultDSPProfiles(),
		TierMultipliers: defaultTierMultipliers(),
		DefenseWeights:  defaultDefenseWeights(),
	}
}

func defaultComponents() map[string]ComponentTable {
	return map[string]ComponentTable{
		model.ComponentCanvas: {
			Cap:      CapCanvas,
			Fallback: 1.0 / 250000,
		},
		model.ComponentWebGL: {
			Cap:      CapWebGL,
			Fallback: 1.0 / 20000,
			Values: map[string]float64{
				"Apple Inc.~Apple GPU":                0.085,
				"Intel Inc.~Intel Iris OpenGL Engine": 0.011,
				"Mozilla~Mozilla":                     0.04,
				"Google Inc.~ANGLE (Intel)":           0.031,
				"Google Inc.~ANGLE (NVIDIA)":          0.012,
			},
		},
		model.ComponentAudio: {
			Cap:      CapAudio,
			Fallback: 1.0 / 5000,
			Values: map[string]float64{
				"124.04347527516074": 0.34,
				"124.04347657808103": 0.17,
				"35.73833402246237":  0.08,
			},
		},
		model.ComponentFonts: {
			Cap:      CapFonts,
			Fallback: 1.0 / 100000,
		},
		model.ComponentScreen: {
			Cap:      CapScreen,
			Fallback: 0.002,
			Values: map[string]float64{
				"1920x1080x24": 0.22,
				"1366x768x24":  0.09,
				"1536x864x24":  0.08,
				"2560x1440x24": 0.05,
				"1440x900x24":  0.04,
				"1280x720x24":  0.03,
				"1680x1050x24": 0.02,
				"390x844x24":   0.04,
				"393x873x24":   0.03,
				"1512x982x30":  0.02,
			},
		},
		model.ComponentPlatform: {
			Cap:      CapPlatform,
			Fallback: 0.005,
			Values: map[string]float64{
				"Win32":        0.62,
				"MacIntel":     0.20,
				"Linux x86_64": 0.04,
				"iPhone":       0.06,
				"Linux armv8l": 0.05,
				"Linux armv81": 0.01,
			},
		},
		model.ComponentUserAgent: {
			Cap:      CapUserAgent,
			Fallback: 1.0 / 50000,
		},
		model.ComponentTimezone: {
			Cap:      CapTimezone,
			Fallback: 0.01,
			Values: map[string]float64{
				"America/New_York":    0.12,
				"America/Chicago":     0.06,
				"America/Los_Angeles": 0.07,
				"America/Denver":      0.02,
				"Europe/London":       0.05,
				"Europe/Berlin":       0.04,
				"Europe/Paris":        0.03,
				"Asia/Shanghai":       0.06,
				"Asia/Kolkata":        0.05,
				"Asia/Tokyo":          0.03,
				"UTC":                 0.02,
			},
		},
		model.ComponentLanguage: {
			Cap:      CapLanguage,
			Fallback: 0.005,
			Values: map[string]float64{
				"en-US": 0.45,
				"en-GB": 0.05,
				"zh-CN": 0.07,
				"de-DE": 0.04,
				"fr-FR": 0.03,
				"es-ES": 0.03,
				"ja-JP": 0.03,
				"pt-BR": 0.03,
				"ru-RU": 0.02,
			},
		},
		model.ComponentHardware: {
			Cap:      CapHardware,
			Fallback: 0.01,
			Values: map[string]float64{
				"cores=8;memory=8":  0.18,
				"cores=4;memory=8":  0.12,
				"cores=12;memory=8": 0.06,
				"cores=16;memory=8": 0.05,
				"cores=8;memory=4":  0.05,
				"cores=4;memory=4":  0.06,
				"cores=2;memory=4":  0.03,
				"cores=8":           0.22,
				"cores=4":           0.16,
			},
		},
		model.ComponentPlugins: {
			Cap:      CapPlugins,
			Fallback: 0.001,
			Values: map[string]float64{
				"Chrome PDF Viewer,Chromium PDF Viewer,Microsoft Edge PDF Viewer,PDF Viewer,WebKit built-in PDF": 0.62,
			},
		},
		model.ComponentTouch: {
			Cap:      CapTouch,
			Fallback: 0.02,
			Values: map[string]float64{
				"0":  0.70,
				"1":  0.02,
				"5":  0.15,
				"10": 0.10,
			},
		},
		model.ComponentUnknown: {
			Cap:      CapUnknown,
			Fallback: 0.5,
		},
	}
}

func defaultFontBuckets() []FontBucket {
	return []FontBucket{
		{MaxCount: 10, Probability: 0.20},
		{MaxCount: 30, Probability: 0.05},
		{MaxCount: 60, Probability: 0.005},
		{MaxCount: 100, Probability: 0.0005},
	}
}

func defaultDSPProfiles() []DSPProfile {
	return []DSPProfile{
		{
			Name:     "The Trade Desk",
			Interest: "programmatic-display",
			Targets:  []model.Persona{model.PersonaGeneral},
			MinCPM:   1.00,
			MaxCPM:   3.50,
		},
		{
			Name:     "Google DV360",
			Interest: "search-intent",
			Targets:  []model.Persona{model.PersonaGeneral},
			MinCPM:   1.20,
			MaxCPM:   4.00,
		},
		{
			Name:     "Criteo",
			Interest: "retail-retargeting",
			Targets:  []model.Persona{model.PersonaAffluentShopper, model.PersonaUSConsumer},
			MinCPM:   2.50,
			MaxCPM:   6.00,
		},
		{
			Name:     "Amazon DSP",
			Interest: "e-commerce",
			Targets:  []model.Persona{model.PersonaAffluentShopper, model.PersonaUSConsumer},
			MinCPM:   3.00,
			MaxCPM:   7.50,
		},
		{
			Name:     "MediaMath",
			Interest: "luxury-travel",
			Targets:  []model.Persona{model.PersonaAffluentShopper},
			MinCPM:   3.50,
			MaxCPM:   8.00,
		},
		{
			Name:     "LinkedIn Audience Network",
			Interest: "b2b-software",
			Targets:  []model.Persona{model.PersonaTechProfessional},
			MinCPM:   4.00,
			MaxCPM:   9.00,
		},
		{
			Name:     "Microsoft Advertising",
			Interest: "developer-tools",
			Targets:  []model.Persona{model.PersonaTechProfessional},
			MinCPM:   2.00,
			MaxCPM:   5.50,
		},
		{
			Name:     "Xandr",
			Interest: "gaming-hardware",
			Targets:  []model.Persona{model.PersonaGamer},
			MinCPM:   2.00,
			MaxCPM:   5.00,
		},
		{
			Name:     "Unity Ads",
			Interest: "mobile-games",
			Targets:  []model.Persona{model.PersonaGamer},
			MinCPM:   1.50,
			MaxCPM:   4.00,
		},
		{
			Name:     "Privacy Product Affiliates",
			Interest: "vpn-and-security",
			Targets:  []model.Persona{model.PersonaPrivacyConscious},
			MinCPM:   0.80,
			MaxCPM:   2.50,
		},
	}
}

func defaultTierMultipliers() map[model.EntropyTier]float64 {
	return map[model.EntropyTier]float64{
		model.EntropyTierNotVeryUnique:   1.00,
		model.EntropyTierSomewhatUnique:  1.10,
		model.EntropyTierUnique:          1.25,
		model.EntropyTierVeryUnique:      1.45,
		model.EntropyTierExtremelyUnique: 1.70,
	}
}

func defaultDefenseWeights() []DefenseWeight {
	return []DefenseWeight{
		{
			Protection:     model.ProtectionCanvasBlocking,
			Points:         20,
			Recommendation: "Block canvas readback with a canvas blocker extension or your browser's built-in fingerprinting protection.",
		},
		{
			Protection:     model.ProtectionWebGLProtection,
			Points:         15,
			Recommendation: "Disable or spoof WebGL renderer information so your GPU model cannot be read.",
		},
		{
			Protection:     model.ProtectionTrackerBlocking,
			Points:         15,
			Recommendation: "Enable strict tracker blocking (for example uBlock Origin or Firefox Enhanced Tracking Protection).",
		},
		{
			Protection:     model.ProtectionFingerprintRandomization,
			Points:         20,
			Recommendation: "Use a browser that randomizes fingerprint values per session, such as Brave or Tor Browser.",
		},
		{
			Protection:     model.ProtectionAdBlocking,
			Points:         10,
			Recommendation: "Install a content blocker to stop ad scripts from loading in the first place.",
		},
		{
			Protection:     model.ProtectionSecureDNS,
			Points:         10,
			Recommendation: "Turn on DNS-over-HTTPS so your network provider cannot log the sites you resolve.",
		},
		{
			Protection:     model.ProtectionWebRTCProtection,
			Points:         10,
			Recommendation: "Prevent WebRTC from exposing your local and public IP addresses.",
		},
	}
}
