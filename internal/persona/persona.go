// Package persona maps fingerprint signals to a single advertiser-relevant
// category.
//
// Rules are evaluated strictly in order and the first match wins, so the
// order of DefaultRules is part of the contract: moving a rule changes
// which persona ambiguous payloads receive.
package persona

import (
	"regexp"
	"slices"
	"strings"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Rule pairs a predicate with the persona it selects.
// A predicate must return false when the signals it needs are absent.
type Rule struct {
	Name    string
	Persona model.Persona
	Match   func(p *model.FingerprintPayload) bool
}

// DefaultRules returns the production rule list in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "privacy-tools", Persona: model.PersonaPrivacyConscious, Match: usesPrivacyTools},
		{Name: "developer-tooling", Persona: model.PersonaTechProfessional, Match: usesDeveloperTooling},
		{Name: "gaming-gpu", Persona: model.PersonaGamer, Match: hasGamingGPU},
		{Name: "premium-hardware", Persona: model.PersonaAffluentShopper, Match: hasPremiumHardware},
		{Name: "us-market", Persona: model.PersonaUSConsumer, Match: inUSMarket},
	}
}

// Infer returns the persona of the first matching rule, or PersonaGeneral
// when none match. It never fails.
func Infer(p *model.FingerprintPayload, rules []Rule) model.Persona {
	if p == nil {
		return model.PersonaGeneral
	}
	for _, r := range rules {
		if r.Match != nil && r.Match(p) {
			return r.Persona
		}
	}
	return model.PersonaGeneral
}

// privacyExtensions are extension names whose presence marks a visitor who
// actively manages tracking.
var privacyExtensions = []string{
	"ublock origin",
	"privacy badger",
	"noscript",
	"canvasblocker",
	"ghostery",
	"decentraleyes",
	"clearurls",
}

// developerExtensions are extensions that practically only developers install.
var developerExtensions = []string{
	"react developer tools",
	"vue.js devtools",
	"redux devtools",
	"angular devtools",
	"graphql network inspector",
	"json viewer",
}

// developerFonts are programming fonts rarely present on non-developer machines.
var developerFonts = []string{
	"Fira Code",
	"JetBrains Mono",
	"Cascadia Code",
	"Source Code Pro",
	"Hack",
}

// privacyBrowser matches user agents of browsers that announce themselves as
// privacy-focused. Tor and Mullvad builds normally mimic Firefox ESR, so
// this only catches the builds that do not.
var privacyBrowser = regexp.MustCompile(`(?i)\b(brave|tor ?browser|mullvad ?browser)\b`)

var gamingGPU = regexp.MustCompile(`(?i)\b(rtx|radeon rx|geforce gtx)\b`)

func usesPrivacyTools(p *model.FingerprintPayload) bool {
	if b := p.Behavior; b != nil {
		if len(b.PrivacyTools) > 0 || model.IsTrue(b.FingerprintRandomization) {
			return true
		}
	}
	sw := p.Software
	if sw == nil {
		return false
	}
	return containsAnyFold(sw.Extensions, privacyExtensions) || privacyBrowser.MatchString(sw.UserAgent)
}

func usesDeveloperTooling(p *model.FingerprintPayload) bool {
	if p.Behavior != nil && model.IsTrue(p.Behavior.DevToolsOpen) {
		return true
	}
	sw := p.Software
	if sw == nil {
		return false
	}
	if containsAnyFold(sw.Extensions, developerExtensions) {
		return true
	}
	for _, f := range sw.Fonts {
		if slices.Contains(developerFonts, strings.TrimSpace(f)) {
			return true
		}
	}
	// Desktop Linux on a workstation-class CPU.
	if sw.Platform == "Linux x86_64" && p.Hardware != nil && p.Hardware.HardwareConcurrency != nil {
		return *p.Hardware.HardwareConcurrency >= 8
	}
	return false
}

func hasGamingGPU(p *model.FingerprintPayload) bool {
	if p.Capabilities == nil || p.Capabilities.WebGLRenderer == "" {
		return false
	}
	return gamingGPU.MatchString(p.Capabilities.WebGLRenderer)
}

func hasPremiumHardware(p *model.FingerprintPayload) bool {
	h := p.Hardware
	if h == nil || h.DeviceMemory == nil || *h.DeviceMemory < 8 {
		return false
	}
	if p.Software != nil && (p.Software.Platform == "MacIntel" || p.Software.Platform == "iPhone") {
		return true
	}
	if p.Capabilities != nil && strings.HasPrefix(p.Capabilities.WebGLVendor, "Apple") {
		return true
	}
	return h.Screen != nil && h.Screen.PixelRatio >= 2
}

func inUSMarket(p *model.FingerprintPayload) bool {
	sw := p.Software
	if sw == nil || !strings.HasPrefix(sw.Timezone, "America/") {
		return false
	}
	lang := sw.Language
	if lang == "" && len(sw.Languages) > 0 {
		lang = sw.Languages[0]
	}
	return strings.EqualFold(lang, "en-US")
}

func containsAnyFold(values, needles []string) bool {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if slices.Contains(needles, v) {
			return true
		}
	}
	return false
}
