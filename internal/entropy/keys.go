package entropy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

func canvasKey(p *model.FingerprintPayload) (string, bool) {
	if p.Capabilities == nil {
		return "", false
	}
	return present(p.Capabilities.CanvasHash)
}

// webglKey prefers "vendor~renderer" since that is what reference tables
// are published in; a bare WebGL hash is used when the renderer is hidden.
func webglKey(p *model.FingerprintPayload) (string, bool) {
	c := p.Capabilities
	if c == nil {
		return "", false
	}
	vendor := strings.TrimSpace(c.WebGLVendor)
	renderer := strings.TrimSpace(c.WebGLRenderer)
	if vendor != "" || renderer != "" {
		return vendor + "~" + renderer, true
	}
	return present(c.WebGLHash)
}

func audioKey(p *model.FingerprintPayload) (string, bool) {
	if p.Capabilities == nil {
		return "", false
	}
	return present(p.Capabilities.AudioHash)
}

func screenKey(p *model.FingerprintPayload) (string, bool) {
	if p.Hardware == nil || p.Hardware.Screen == nil {
		return "", false
	}
	s := p.Hardware.Screen
	if s.Width <= 0 || s.Height <= 0 {
		return "", false
	}
	return fmt.Sprintf("%dx%dx%d", s.Width, s.Height, s.ColorDepth), true
}

func platformKey(p *model.FingerprintPayload) (string, bool) {
	if p.Software == nil {
		return "", false
	}
	return present(p.Software.Platform)
}

func userAgentKey(p *model.FingerprintPayload) (string, bool) {
	if p.Software == nil {
		return "", false
	}
	return present(p.Software.UserAgent)
}

func timezoneKey(p *model.FingerprintPayload) (string, bool) {
	if p.Software == nil {
		return "", false
	}
	return present(p.Software.Timezone)
}

func languageKey(p *model.FingerprintPayload) (string, bool) {
	if p.Software == nil {
		return "", false
	}
	if lang, ok := present(p.Software.Language); ok {
		return lang, true
	}
	for _, lang := range p.Software.Languages {
		if lang, ok := present(lang); ok {
			return lang, true
		}
	}
	return "", false
}

// hardwareKey combines core count and device memory, whichever are known.
func hardwareKey(p *model.FingerprintPayload) (string, bool) {
	h := p.Hardware
	if h == nil {
		return "", false
	}
	var parts []string
	if h.HardwareConcurrency != nil {
		parts = append(parts, "cores="+strconv.Itoa(*h.HardwareConcurrency))
	}
	if h.DeviceMemory != nil {
		parts = append(parts, "memory="+strconv.FormatFloat(*h.DeviceMemory, 'g', -1, 64))
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ";"), true
}

func pluginsKey(p *model.FingerprintPayload) (string, bool) {
	plugins := p.NormalizedPlugins()
	if len(plugins) == 0 {
		return "", false
	}
	return strings.Join(plugins, ","), true
}

func touchKey(p *model.FingerprintPayload) (string, bool) {
	if p.Hardware == nil || p.Hardware.MaxTouchPoints == nil {
		return "", false
	}
	return strconv.Itoa(*p.Hardware.MaxTouchPoints), true
}

func present(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
