package main

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
)

//go:embed templates/panopticlick.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a methodology override file",
		Long: `Init writes a commented .panopticlick file to the current directory.

The file documents every methodology table that can be overridden:
reference frequencies, font buckets, simulated bidders, tier multipliers
and defense weights. Everything is commented out, so the new file changes
nothing until you edit it.

Examples:
  # Create .panopticlick in current directory
  panopticlick init

  # Create the file in the XDG config directory
  panopticlick init --xdg

  # Force overwrite existing file
  panopticlick init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write to the XDG config directory instead of --output")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")
	cmd.MarkFlagsMutuallyExclusive("output", "xdg")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if useXDG {
		path = config.XDGConfigFile()
	}

	if err := writeTemplate(path, force); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", path)
	fmt.Fprintln(out, "\nUncomment and edit sections to override:")
	fmt.Fprintln(out, "  - Reference frequencies and entropy caps")
	fmt.Fprintln(out, "  - Simulated bidders and tier multipliers")
	fmt.Fprintln(out, "  - Defense weights and recommendations")
	return nil
}

// writeTemplate writes the template to path. Without force an existing file
// is left untouched.
func writeTemplate(path string, force bool) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0600) //nolint:gosec // User-provided output path is intentional
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
	}
	if err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	if _, err := f.Write(configTemplate); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return f.Close()
}
