package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// errHashMismatch is returned by hash --check when meta.hash is stale.
var errHashMismatch = errors.New("meta.hash does not match the payload signals")

// NewHashCmd creates the hash command.
func NewHashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash [payload.json]",
		Short: "Compute the digest of a fingerprint payload",
		Long: `Hash prints the canonical digest of a payload's signals, in the form
collectors are expected to put in meta.hash.

The digest ignores the meta envelope and the order of list signals such as
fonts and plugins. Use - or no argument to read stdin.

Examples:
  # Print the digest
  panopticlick hash payload.json

  # Check that meta.hash is up to date
  panopticlick hash --check payload.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHashCmd,
	}

	cmd.Flags().Bool("check", false,
		"Compare the digest with meta.hash and fail on mismatch")

	return cmd
}

// runHashCmd executes the hash command.
func runHashCmd(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}

	input := stdinInput
	if len(args) == 1 {
		input = args[0]
	}

	sub, err := submissionLoader(cmd.InOrStdin())(input)
	if err != nil {
		return err
	}

	digest, err := model.Digest(&sub.FingerprintPayload)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !check {
		fmt.Fprintln(out, digest)
		return nil
	}

	if sub.Meta.Hash != digest {
		fmt.Fprintf(out, "meta.hash: %s\ncomputed:  %s\n", sub.Meta.Hash, digest)
		return errHashMismatch
	}
	fmt.Fprintf(out, "OK %s\n", digest)
	return nil
}
