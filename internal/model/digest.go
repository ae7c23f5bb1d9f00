package model

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/crypto/sha3"
)

// digestPrefix tags digests with the algorithm so a future change of
// normalization can coexist with stored reports.
const digestPrefix = "sha3-256:"

// signalSet is the part of a payload covered by the digest.
// Meta is excluded: the digest identifies signals, not collection events.
type signalSet struct {
	Hardware     *Hardware     `json:"hardware"`
	Software     *Software     `json:"software"`
	Capabilities *Capabilities `json:"capabilities"`
	Network      *Network      `json:"network"`
	Behavior     *Behavior     `json:"behavior"`
}

// Digest returns the reference content digest of the payload's signal set.
//
// Order-insensitive lists (fonts, plugins, extensions, languages, privacy
// tools, local IPs) are trimmed, de-duplicated and sorted before hashing so
// that two collectors enumerating the same fonts in different order agree.
// Map keys are ordered by encoding/json. The payload itself is not modified.
func Digest(p *FingerprintPayload) (string, error) {
	if p == nil {
		return "", &ValidationError{Field: "payload", Reason: "payload is nil"}
	}

	set := signalSet{
		Hardware:     p.Hardware,
		Capabilities: p.Capabilities,
	}
	if p.Software != nil {
		sw := *p.Software
		sw.Languages = normalizeList(sw.Languages)
		sw.Fonts = normalizeList(sw.Fonts)
		sw.Plugins = normalizeList(sw.Plugins)
		sw.Extensions = normalizeList(sw.Extensions)
		set.Software = &sw
	}
	if p.Network != nil {
		nw := *p.Network
		nw.LocalIPs = normalizeList(nw.LocalIPs)
		set.Network = &nw
	}
	if p.Behavior != nil {
		bh := *p.Behavior
		bh.PrivacyTools = normalizeList(bh.PrivacyTools)
		set.Behavior = &bh
	}

	data, err := json.Marshal(set)
	if err != nil {
		return "", fmt.Errorf("failed to encode signal set: %w", err)
	}

	sum := sha3.Sum256(data)
	return digestPrefix + hex.EncodeToString(sum[:]), nil
}

// normalizeList returns a sorted, de-duplicated copy of values with
// surrounding whitespace removed. Empty entries are dropped.
func normalizeList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// NormalizedFonts returns the canonical font list of a payload, or nil when
// fonts were not collected.
func (p *FingerprintPayload) NormalizedFonts() []string {
	if p == nil || p.Software == nil {
		return nil
	}
	return normalizeList(p.Software.Fonts)
}

// NormalizedPlugins returns the canonical plugin list of a payload.
func (p *FingerprintPayload) NormalizedPlugins() []string {
	if p == nil || p.Software == nil {
		return nil
	}
	return normalizeList(p.Software.Plugins)
}
