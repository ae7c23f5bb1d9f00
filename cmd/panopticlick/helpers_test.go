package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// testPayload is a minimal but realistic submission.
const testPayload = `{
  "meta": {"hash": "sha3-256:test", "collectedAt": "2026-03-01T12:00:00Z"},
  "hardware": {"screen": {"width": 1920, "height": 1080, "colorDepth": 24}, "hardwareConcurrency": 8},
  "software": {
    "userAgent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
    "platform": "Win32",
    "language": "en-US",
    "timezone": "Europe/Berlin",
    "fonts": ["Arial", "Calibri", "Segoe UI"]
  },
  "capabilities": {"canvasHash": "c0ffee", "webglVendor": "Google Inc.", "webglRenderer": "ANGLE (Intel)"},
  "testResults": {"canvasBlocking": true}
}`

// writePayload writes content to a file in a fresh temp dir.
func writePayload(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	return path
}

// executeCommand runs the root command with args and returns stdout.
// Log output is discarded.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
