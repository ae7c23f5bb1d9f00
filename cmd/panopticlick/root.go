package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/log"
)

// NewRootCmd creates the root command for Panopticlick.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panopticlick",
		Short: "Fingerprint valuation engine",
		Long: `Panopticlick turns a browser fingerprint into a report of what it is worth
to the advertising market.

For each fingerprint payload it estimates:
- How identifying the fingerprint is, in bits of entropy
- Which advertiser persona it would be sold as, and what bidders would pay
- Which tracking protections the browser has, and what is missing`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("log-format", string(log.FormatText), "Log format on stderr: text or json")

	cmd.AddCommand(
		NewValueCmd(),
		NewCompareCmd(),
		NewServeCmd(),
		NewHashCmd(),
		NewInitCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// getVerboseFlag reports whether debug logging was requested.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		// Not merged yet when the command has not been executed.
		verbose, err = cmd.InheritedFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger builds the stderr logger for cmd. Fingerprint values are
// redacted before they are written.
func setupLogger(cmd *cobra.Command, verbose bool) (*slog.Logger, error) {
	raw, err := cmd.Flags().GetString("log-format")
	if err != nil {
		raw = string(log.FormatText)
	}
	format, err := log.ParseFormat(raw)
	if err != nil {
		return nil, err
	}
	return log.New(cmd.ErrOrStderr(), format, verbose), nil
}
