package model

import (
	"strings"
	"testing"
	"time"
)

// TestDigest tests digest stability and sensitivity.
func TestDigest(t *testing.T) {
	t.Parallel()

	base, err := Digest(samplePayload())
	if err != nil {
		t.Fatalf("Digest() error = %v", err)
	}
	if !strings.HasPrefix(base, "sha3-256:") || len(base) != len("sha3-256:")+64 {
		t.Fatalf("Digest() = %q, want sha3-256 prefix and 64 hex chars", base)
	}

	testCases := []struct {
		name     string
		mutate   func(p *FingerprintPayload)
		wantSame bool
	}{
		{
			name:     "unchanged",
			mutate:   func(p *FingerprintPayload) {},
			wantSame: true,
		},
		{
			name: "meta is excluded",
			mutate: func(p *FingerprintPayload) {
				p.Meta.Hash = "something else"
				p.Meta.CollectedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
			},
			wantSame: true,
		},
		{
			name: "font order is ignored",
			mutate: func(p *FingerprintPayload) {
				p.Software.Fonts = []string{"Segoe UI", "Arial", "Calibri"}
			},
			wantSame: true,
		},
		{
			name: "font whitespace and duplicates are ignored",
			mutate: func(p *FingerprintPayload) {
				p.Software.Fonts = []string{" Arial", "Calibri", "Arial", "Segoe UI ", ""}
			},
			wantSame: true,
		},
		{
			name: "language order is ignored",
			mutate: func(p *FingerprintPayload) {
				p.Software.Languages = []string{"en", "en-US"}
			},
			wantSame: true,
		},
		{
			name: "extra font changes digest",
			mutate: func(p *FingerprintPayload) {
				p.Software.Fonts = append(p.Software.Fonts, "Comic Sans MS")
			},
		},
		{
			name: "canvas hash changes digest",
			mutate: func(p *FingerprintPayload) {
				p.Capabilities.CanvasHash = "deadbeef"
			},
		},
		{
			name: "absent differs from false",
			mutate: func(p *FingerprintPayload) {
				p.Network.WebRTCLeak = nil
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			p := samplePayload()
			tc.mutate(p)
			got, err := Digest(p)
			if err != nil {
				t.Fatalf("Digest() error = %v", err)
			}
			if (got == base) != tc.wantSame {
				t.Errorf("Digest() same = %v, want %v", got == base, tc.wantSame)
			}
		})
	}
}

// TestDigestDoesNotMutate tests that normalization works on copies.
func TestDigestDoesNotMutate(t *testing.T) {
	t.Parallel()

	p := samplePayload()
	p.Software.Fonts = []string{"Zapfino", "Arial"}
	if _, err := Digest(p); err != nil {
		t.Fatal(err)
	}
	if p.Software.Fonts[0] != "Zapfino" {
		t.Errorf("Digest reordered the payload's fonts: %v", p.Software.Fonts)
	}
}

// TestDigestNil tests the nil payload.
func TestDigestNil(t *testing.T) {
	t.Parallel()

	if _, err := Digest(nil); err == nil {
		t.Error("Digest(nil) should fail")
	}
}

// TestNormalizedFonts tests canonical font lists.
func TestNormalizedFonts(t *testing.T) {
	t.Parallel()

	p := &FingerprintPayload{Software: &Software{Fonts: []string{"b", " a ", "b", " "}}}
	got := p.NormalizedFonts()
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("NormalizedFonts() = %v, want [a b]", got)
	}
	if (&FingerprintPayload{}).NormalizedFonts() != nil {
		t.Error("missing software should yield nil")
	}
}
