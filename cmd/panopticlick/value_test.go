package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
	"github.com/panopticlick/Panopticlick-sub001/internal/database"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/pipeline"
)

// emptyConfig returns a methodology file that overrides nothing, so tests
// never pick up a .panopticlick from the working or home directory.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writePayload(t, "config.yaml", "")
}

func TestNewValueCmd(t *testing.T) {
	t.Parallel()

	cmd := NewValueCmd()

	flagsWithShort := map[string]string{
		"batch":    "b",
		"config":   "c",
		"json":     "j",
		"markdown": "m",
		"output":   "o",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}

	for _, flag := range []string{"verify-hash", "no-save", "db-dir"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected flag %q to exist", flag)
		}
	}
}

func TestRunValueCmd(t *testing.T) {
	t.Parallel()

	t.Run("json report is saved", func(t *testing.T) {
		t.Parallel()
		dbDir := t.TempDir()
		path := writePayload(t, "payload.json", testPayload)

		out, err := executeCommand(t, "", "value", "-c", emptyConfig(t),
			"--json", "--db-dir", dbDir, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got model.ValuationReport
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not a JSON report: %v\n%s", err, out)
		}
		if got.Meta.PayloadHash != "sha3-256:test" {
			t.Errorf("hash = %q", got.Meta.PayloadHash)
		}
		if got.Entropy.TotalBits <= 0 {
			t.Errorf("expected positive entropy, got %v", got.Entropy.TotalBits)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		saved, err := db.GetReportByReportID(context.Background(), got.Meta.ReportID)
		if err != nil {
			t.Fatal(err)
		}
		if saved == nil {
			t.Fatal("expected report to be saved")
		}
	})

	t.Run("stdin without saving", func(t *testing.T) {
		t.Parallel()
		dbDir := filepath.Join(t.TempDir(), "db")

		out, err := executeCommand(t, testPayload, "value", "-c", emptyConfig(t),
			"--no-save", "--db-dir", dbDir, "-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out == "" {
			t.Error("expected report output")
		}
		if _, err := os.Stat(dbDir); !os.IsNotExist(err) {
			t.Error("database directory should not be created with --no-save")
		}
	})

	t.Run("markdown to file", func(t *testing.T) {
		t.Parallel()
		reportPath := filepath.Join(t.TempDir(), "out", "report.md")
		path := writePayload(t, "payload.json", testPayload)

		out, err := executeCommand(t, "", "value", "-c", emptyConfig(t),
			"--no-save", "-m", "-o", reportPath, path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out == "" || strings.Contains(out, "# Fingerprint Valuation Report") {
			t.Errorf("expected a plain-text copy on stdout, got:\n%s", out)
		}

		data, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "# Fingerprint Valuation Report") {
			t.Errorf("expected a Markdown heading, got:\n%s", data)
		}
	})

	t.Run("batch reports failures", func(t *testing.T) {
		t.Parallel()
		good := writePayload(t, "good.json", testPayload)
		missing := filepath.Join(t.TempDir(), "missing.json")

		out, err := executeCommand(t, "", "value", "-c", emptyConfig(t),
			"--no-save", good, missing)
		if err == nil || !strings.Contains(err.Error(), "1 of 2 inputs") {
			t.Fatalf("expected partial failure, got %v", err)
		}
		if !strings.Contains(out, "1 valued, 1 failed") {
			t.Errorf("unexpected summary:\n%s", out)
		}
	})

	t.Run("hash verification", func(t *testing.T) {
		t.Parallel()
		path := writePayload(t, "payload.json", testPayload)

		_, err := executeCommand(t, "", "value", "-c", emptyConfig(t),
			"--no-save", "--verify-hash", path)
		if !errors.Is(err, pipeline.ErrHashMismatch) {
			t.Fatalf("expected ErrHashMismatch, got %v", err)
		}
		if !strings.Contains(err.Error(), path) {
			t.Errorf("expected error to name %s, got %v", path, err)
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		path := writePayload(t, "payload.json", `{"meta": {}}`)

		_, err := executeCommand(t, "", "value", "-c", emptyConfig(t), "--no-save", path)
		if !errors.Is(err, model.ErrInvalidPayload) {
			t.Fatalf("expected ErrInvalidPayload, got %v", err)
		}
	})
}

func TestRunValueCmdConfigErrors(t *testing.T) {
	t.Parallel()

	path := writePayload(t, "payload.json", testPayload)

	testCases := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "no inputs",
			args:    []string{"value", "--no-save"},
			wantErr: config.ErrNoInput,
		},
		{
			name:    "conflicting formats",
			args:    []string{"value", "--no-save", "-j", "-m", path},
			wantErr: config.ErrConflictingReportFormats,
		},
		{
			name:    "invalid batch size",
			args:    []string{"value", "--no-save", "-b", "0", path},
			wantErr: config.ErrInvalidBatchSize,
		},
		{
			name:    "missing explicit config",
			args:    []string{"value", "--no-save", "-c", filepath.Join(t.TempDir(), "nope.yaml"), path},
			wantMsg: "configuration file not found",
		},
		{
			name:    "inconsistent methodology",
			args:    []string{"value", "--no-save", "-c", writePayload(t, "bad.yaml", "tierMultipliers:\n  not very unique: 9\n"), path},
			wantMsg: "invalid methodology",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := executeCommand(t, "", tc.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantMsg != "" && !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("expected %q in %v", tc.wantMsg, err)
			}
		})
	}
}
