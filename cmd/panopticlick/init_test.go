package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	flag := cmd.Flags().Lookup("output")
	if flag == nil {
		t.Fatal("expected output flag")
	}
	if flag.Shorthand != "o" {
		t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
	}
	if flag.DefValue != config.DefaultConfigFile {
		t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
	}

	if f := cmd.Flags().Lookup("force"); f == nil || f.Shorthand != "f" {
		t.Error("expected force flag with shorthand 'f'")
	}
	if cmd.Flags().Lookup("xdg") == nil {
		t.Error("expected xdg flag")
	}
}

func TestRunInitCmdConflictingFlags(t *testing.T) {
	t.Parallel()

	_, err := executeCommand(t, "", "init", "--xdg", "-o", filepath.Join(t.TempDir(), "x.yaml"))
	if err == nil {
		t.Fatal("expected --xdg and --output to conflict")
	}
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		out, err := executeCommand(t, "", "init", "-o", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out, "Created configuration file") {
			t.Errorf("unexpected output: %s", out)
		}

		// Everything in the template is commented out.
		file, err := config.LoadConfigFile(path)
		if err != nil {
			t.Fatalf("template should load: %v", err)
		}
		if _, err := config.Tables(file); err != nil {
			t.Errorf("template should not change the tables: %v", err)
		}
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".panopticlick")
		if err := os.WriteFile(path, []byte("keep"), 0600); err != nil {
			t.Fatal(err)
		}

		_, err := executeCommand(t, "", "init", "-o", path)
		if err == nil || !strings.Contains(err.Error(), "already exists") {
			t.Fatalf("expected already exists error, got %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != "keep" {
			t.Error("existing file was modified")
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), ".panopticlick")
		if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := executeCommand(t, "", "init", "-f", "-o", path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		if string(data) == "old" {
			t.Error("expected file to be overwritten")
		}
	})
}
