package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/panopticlick/Panopticlick-sub001/internal/config"
	"github.com/panopticlick/Panopticlick-sub001/internal/database"
	"github.com/panopticlick/Panopticlick-sub001/internal/model"
	"github.com/panopticlick/Panopticlick-sub001/internal/report"
)

// Directions of a privacy change between two reports.
const (
	directionImproved  = "improved"
	directionWorsened  = "worsened"
	directionMixed     = "mixed"
	directionUnchanged = "unchanged"
)

// bitsEpsilon is the smallest entropy change treated as a real change.
const bitsEpsilon = 0.005

// errNoHistory is returned when a payload hash has no stored reports.
var errNoHistory = errors.New("no report history")

// NewCompareCmd creates the compare command.
// This command compares valuation reports stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [payload-hash]",
		Short: "Compare valuation reports for the same fingerprint",
		Long: `Compare shows how a fingerprint's valuation changed between two reports.

Reports are keyed by the payload hash (meta.hash). The comparison shows:
- Change in entropy (bits) and uniqueness tier
- Change in persona and annual market value
- Change in defense score, with protections gained or lost

The comparison requires at least two reports for the payload hash.
Use 'panopticlick value' to value payloads and save reports.

Examples:
  # Compare the latest two reports for a payload
  panopticlick compare sha3-256:9f86d08...

  # List report history for a payload
  panopticlick compare --list sha3-256:9f86d08...

  # Compare the latest report with a specific one by ID
  panopticlick compare --with-id 5 sha3-256:9f86d08...

  # Compare with the first report since a date
  panopticlick compare --since 2026-01-01 sha3-256:9f86d08...

  # List every payload hash in the database
  panopticlick compare --list-hashes`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List report history for the specified payload hash")
	cmd.Flags().BoolP("list-hashes", "L", false,
		"List all payload hashes in the database")

	cmd.Flags().Int64P("with-id", "i", 0,
		"Compare with a specific report by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first report on or after this date (format: YYYY-MM-DD)")

	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// compareOptions holds the parsed compare flags.
type compareOptions struct {
	payloadHash string
	withID      int64
	since       string
	json        bool
	markdown    bool
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	listHashes, err := cmd.Flags().GetBool("list-hashes")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var opts compareOptions
	if !listHashes {
		if len(args) == 0 {
			return errors.New("payload hash is required (use --list-hashes to see stored hashes)")
		}
		opts.payloadHash = strings.TrimSpace(args[0])
	}

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	if listHashes {
		return listPayloadHashes(ctx, out, db)
	}

	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listReportHistory(ctx, out, db, opts.payloadHash)
	}

	if opts.json, err = cmd.Flags().GetBool("json"); err != nil {
		return err
	}
	if opts.markdown, err = cmd.Flags().GetBool("markdown"); err != nil {
		return err
	}
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	if opts.withID, err = cmd.Flags().GetInt64("with-id"); err != nil {
		return err
	}
	if opts.since, err = cmd.Flags().GetString("since"); err != nil {
		return err
	}

	return runComparison(ctx, out, db, opts)
}

// listPayloadHashes lists every payload hash that has stored reports.
func listPayloadHashes(ctx context.Context, out io.Writer, db *database.ReportDB) error {
	hashes, err := db.ListPayloadHashes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list payload hashes: %w", err)
	}

	if len(hashes) == 0 {
		fmt.Fprintln(out, "No reports found in the database.")
		fmt.Fprintln(out, "\nUse 'panopticlick value <payload.json>' to value a fingerprint.")
		return nil
	}

	fmt.Fprintf(out, "Payload hashes (%d):\n\n", len(hashes))
	for _, hash := range hashes {
		fmt.Fprintf(out, "  • %s\n", hash)
	}
	fmt.Fprintln(out, "\nUse 'panopticlick compare --list <hash>' to see report history for a payload.")

	return nil
}

// listReportHistory lists all reports stored for a payload hash.
func listReportHistory(ctx context.Context, out io.Writer, db *database.ReportDB, payloadHash string) error {
	history, err := db.GetReportHistoryWithMetadata(ctx, payloadHash)
	if err != nil {
		return fmt.Errorf("failed to get report history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(out, "No report history found for %s\n", payloadHash)
		fmt.Fprintln(out, "\nUse 'panopticlick value' to value this payload.")
		return nil
	}

	fmt.Fprintf(out, "Report history for %s (%d reports):\n\n", payloadHash, len(history))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %-18s  %-12s  %s\n",
		"ID", "Date", "Bits", "Persona", "Annual", "Defense")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 84))

	for _, meta := range history {
		fmt.Fprintf(out, "  %-6d  %-20s  %-10.2f  %-18s  %-12s  %d (%s)\n",
			meta.ID,
			meta.GeneratedAt.Format("2006-01-02 15:04:05"),
			meta.TotalBits,
			meta.Persona,
			fmt.Sprintf("$%.2f", meta.AnnualValue),
			meta.DefenseScore,
			meta.DefenseTier,
		)
	}

	fmt.Fprintln(out, "\nUse 'panopticlick compare <hash>' to compare the latest two reports.")
	fmt.Fprintln(out, "Use 'panopticlick compare --with-id <id> <hash>' to compare with a specific report.")

	return nil
}

// runComparison selects the two reports and writes their comparison.
func runComparison(ctx context.Context, out io.Writer, db *database.ReportDB, opts compareOptions) error {
	history, err := db.GetReportHistory(ctx, opts.payloadHash)
	if err != nil {
		return fmt.Errorf("failed to get report history: %w", err)
	}
	if len(history) == 0 {
		return fmt.Errorf("%w for %s", errNoHistory, opts.payloadHash)
	}

	current := history[0]
	previous, err := selectPrevious(ctx, db, history, opts)
	if err != nil {
		return err
	}

	result := compareReports(previous, current)

	switch {
	case opts.json:
		_, err = report.NewJSONWriter(out, report.WithPrettyPrint()).WriteValue(result)
		return err
	case opts.markdown:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// selectPrevious picks the baseline report. history is newest first.
func selectPrevious(ctx context.Context, db *database.ReportDB, history []*model.ValuationReport, opts compareOptions) (*model.ValuationReport, error) {
	current := history[0]

	switch {
	case opts.withID > 0:
		previous, err := db.GetReportByID(ctx, opts.withID)
		if err != nil {
			return nil, fmt.Errorf("failed to get report with ID %d: %w", opts.withID, err)
		}
		if previous == nil {
			return nil, fmt.Errorf("report with ID %d not found", opts.withID)
		}
		if previous.Meta.PayloadHash != opts.payloadHash {
			return nil, fmt.Errorf("report ID %d belongs to %s, not %s",
				opts.withID, previous.Meta.PayloadHash, opts.payloadHash)
		}
		return previous, nil

	case opts.since != "":
		sinceDate, err := time.Parse("2006-01-02", opts.since)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		// Oldest report on or after the date.
		for i := len(history) - 1; i >= 0; i-- {
			if !history[i].Meta.GeneratedAt.Before(sinceDate) {
				if history[i] == current {
					return nil, fmt.Errorf("only one report found since %s; at least 2 reports are required for comparison", opts.since)
				}
				return history[i], nil
			}
		}
		return nil, fmt.Errorf("no reports found since %s", opts.since)

	default:
		if len(history) < 2 {
			return nil, fmt.Errorf("at least 2 reports are required for comparison (found %d)", len(history))
		}
		return history[1], nil
	}
}

// ComparisonResult holds the result of comparing two valuation reports.
type ComparisonResult struct {
	// PayloadHash is the fingerprint both reports were produced from.
	PayloadHash string `json:"hash"`

	Previous ReportSnapshot `json:"previous"`
	Current  ReportSnapshot `json:"current"`

	// Change summarizes the deltas, current minus previous.
	Change ValuationChange `json:"change"`

	// NewComponents contributed entropy only in the current report.
	NewComponents []string `json:"newComponents,omitempty"`

	// RemovedComponents contributed entropy only in the previous report.
	RemovedComponents []string `json:"removedComponents,omitempty"`

	// ResolvedRecommendations were given before and are no longer needed.
	ResolvedRecommendations []string `json:"resolvedRecommendations,omitempty"`

	// NewRecommendations appear only in the current report.
	NewRecommendations []string `json:"newRecommendations,omitempty"`
}

// ReportSnapshot contains the headline figures of one report.
type ReportSnapshot struct {
	ReportID     string            `json:"reportId"`
	GeneratedAt  time.Time         `json:"generatedAt"`
	TotalBits    float64           `json:"totalBits"`
	EntropyTier  model.EntropyTier `json:"entropyTier"`
	Persona      model.Persona     `json:"persona"`
	AnnualValue  float64           `json:"annualValue"`
	DefenseScore int               `json:"defenseScore"`
	DefenseTier  model.DefenseTier `json:"defenseTier"`
}

// ValuationChange describes the change between two reports.
type ValuationChange struct {
	// Direction is "improved", "worsened", "mixed", or "unchanged" from the
	// user's privacy point of view.
	Direction string `json:"direction"`

	BitsDelta        float64 `json:"bitsDelta"`
	AnnualValueDelta float64 `json:"annualValueDelta"`
	ScoreDelta       int     `json:"scoreDelta"`
	PersonaChanged   bool    `json:"personaChanged"`
	TierChanged      bool    `json:"tierChanged"`
}

func snapshot(r *model.ValuationReport) ReportSnapshot {
	return ReportSnapshot{
		ReportID:     r.Meta.ReportID,
		GeneratedAt:  r.Meta.GeneratedAt,
		TotalBits:    r.Entropy.TotalBits,
		EntropyTier:  r.Entropy.Tier,
		Persona:      r.Valuation.Persona,
		AnnualValue:  r.Valuation.AnnualValue,
		DefenseScore: r.Defenses.Score,
		DefenseTier:  r.Defenses.Tier,
	}
}

// compareReports compares two reports and generates a comparison result.
func compareReports(previous, current *model.ValuationReport) *ComparisonResult {
	result := &ComparisonResult{
		PayloadHash: current.Meta.PayloadHash,
		Previous:    snapshot(previous),
		Current:     snapshot(current),
	}

	result.NewComponents, result.RemovedComponents = diffKeys(
		previous.Entropy.Components, current.Entropy.Components)
	result.NewRecommendations, result.ResolvedRecommendations = diffStrings(
		previous.Defenses.Recommendations, current.Defenses.Recommendations)

	result.Change = calculateChange(result.Previous, result.Current)
	return result
}

// calculateChange derives the deltas and overall direction. Fewer bits and
// a higher defense score are both improvements.
func calculateChange(previous, current ReportSnapshot) ValuationChange {
	change := ValuationChange{
		BitsDelta:        current.TotalBits - previous.TotalBits,
		AnnualValueDelta: current.AnnualValue - previous.AnnualValue,
		ScoreDelta:       current.DefenseScore - previous.DefenseScore,
		PersonaChanged:   current.Persona != previous.Persona,
		TierChanged:      current.EntropyTier != previous.EntropyTier,
	}

	bits := 0
	if change.BitsDelta < -bitsEpsilon {
		bits = 1
	} else if change.BitsDelta > bitsEpsilon {
		bits = -1
	}
	score := 0
	if change.ScoreDelta > 0 {
		score = 1
	} else if change.ScoreDelta < 0 {
		score = -1
	}

	switch {
	case bits == 0 && score == 0:
		change.Direction = directionUnchanged
	case bits >= 0 && score >= 0:
		change.Direction = directionImproved
	case bits <= 0 && score <= 0:
		change.Direction = directionWorsened
	default:
		change.Direction = directionMixed
	}
	return change
}

// diffKeys returns keys only in current (added) and only in previous (removed), sorted.
func diffKeys(previous, current map[string]model.ComponentEntropy) (added, removed []string) {
	for k := range current {
		if _, ok := previous[k]; !ok {
			added = append(added, k)
		}
	}
	for k := range previous {
		if _, ok := current[k]; !ok {
			removed = append(removed, k)
		}
	}
	slices.Sort(added)
	slices.Sort(removed)
	return added, removed
}

// diffStrings returns entries only in current (added) and only in previous
// (removed), keeping their original order.
func diffStrings(previous, current []string) (added, removed []string) {
	for _, s := range current {
		if !slices.Contains(previous, s) {
			added = append(added, s)
		}
	}
	for _, s := range previous {
		if !slices.Contains(current, s) {
			removed = append(removed, s)
		}
	}
	return added, removed
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(out io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(out)

	md.H1("Valuation Comparison")
	md.PlainTextf("Payload `%s`", result.PayloadHash)
	md.Importantf("Privacy status: %s", formatDirection(result.Change.Direction))

	md.H2("Summary")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Date",
				result.Previous.GeneratedAt.Format("2006-01-02 15:04"),
				result.Current.GeneratedAt.Format("2006-01-02 15:04"),
				"-"},
			{"Entropy",
				fmt.Sprintf("%.2f bits", result.Previous.TotalBits),
				fmt.Sprintf("%.2f bits", result.Current.TotalBits),
				formatFloatDelta(result.Change.BitsDelta)},
			{"Uniqueness", string(result.Previous.EntropyTier), string(result.Current.EntropyTier), "-"},
			{"Persona", string(result.Previous.Persona), string(result.Current.Persona), "-"},
			{"Annual value",
				fmt.Sprintf("$%.2f", result.Previous.AnnualValue),
				fmt.Sprintf("$%.2f", result.Current.AnnualValue),
				formatFloatDelta(result.Change.AnnualValueDelta)},
			{"Defense score",
				strconv.Itoa(result.Previous.DefenseScore),
				strconv.Itoa(result.Current.DefenseScore),
				formatDelta(result.Change.ScoreDelta)},
		},
	})

	if len(result.NewComponents) > 0 || len(result.RemovedComponents) > 0 {
		md.H2("Entropy Components")
		var items []string
		for _, c := range result.NewComponents {
			items = append(items, "Now exposed: "+c)
		}
		for _, c := range result.RemovedComponents {
			items = append(items, "No longer exposed: "+c)
		}
		md.BulletList(items...)
	}

	if len(result.ResolvedRecommendations) > 0 {
		md.H2(fmt.Sprintf("Resolved Recommendations (%d)", len(result.ResolvedRecommendations)))
		md.BulletList(result.ResolvedRecommendations...)
	}
	if len(result.NewRecommendations) > 0 {
		md.H2(fmt.Sprintf("New Recommendations (%d)", len(result.NewRecommendations)))
		md.BulletList(result.NewRecommendations...)
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(out io.Writer, result *ComparisonResult) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Valuation Comparison: %s\n", result.PayloadHash)
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	fmt.Fprintf(&sb, "\nPrivacy Status: %s\n", formatDirection(result.Change.Direction))
	fmt.Fprintf(&sb, "\nPrevious report: %s\n", result.Previous.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Current report:  %s\n", result.Current.GeneratedAt.Format("2006-01-02 15:04:05"))

	sb.WriteString("\nSummary:\n")
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Metric", "Previous", "Current", "Change")
	sb.WriteString("  " + strings.Repeat("-", 62) + "\n")
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Entropy",
		fmt.Sprintf("%.2f bits", result.Previous.TotalBits),
		fmt.Sprintf("%.2f bits", result.Current.TotalBits),
		formatFloatDelta(result.Change.BitsDelta))
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Uniqueness",
		result.Previous.EntropyTier, result.Current.EntropyTier, changedMark(result.Change.TierChanged))
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Persona",
		result.Previous.Persona, result.Current.Persona, changedMark(result.Change.PersonaChanged))
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Annual value",
		fmt.Sprintf("$%.2f", result.Previous.AnnualValue),
		fmt.Sprintf("$%.2f", result.Current.AnnualValue),
		formatFloatDelta(result.Change.AnnualValueDelta))
	fmt.Fprintf(&sb, "  %-14s  %-18s  %-18s  %s\n", "Defense score",
		fmt.Sprintf("%d (%s)", result.Previous.DefenseScore, result.Previous.DefenseTier),
		fmt.Sprintf("%d (%s)", result.Current.DefenseScore, result.Current.DefenseTier),
		formatDelta(result.Change.ScoreDelta))

	for _, c := range result.NewComponents {
		fmt.Fprintf(&sb, "\n  [+] now exposed: %s", c)
	}
	for _, c := range result.RemovedComponents {
		fmt.Fprintf(&sb, "\n  [-] no longer exposed: %s", c)
	}
	if len(result.NewComponents)+len(result.RemovedComponents) > 0 {
		sb.WriteString("\n")
	}

	if len(result.ResolvedRecommendations) > 0 {
		fmt.Fprintf(&sb, "\nResolved Recommendations (%d):\n", len(result.ResolvedRecommendations))
		for _, r := range result.ResolvedRecommendations {
			fmt.Fprintf(&sb, "  [-] %s\n", r)
		}
	}
	if len(result.NewRecommendations) > 0 {
		fmt.Fprintf(&sb, "\nNew Recommendations (%d):\n", len(result.NewRecommendations))
		for _, r := range result.NewRecommendations {
			fmt.Fprintf(&sb, "  [+] %s\n", r)
		}
	}

	_, err := io.WriteString(out, sb.String())
	return err
}

// formatDirection formats the change direction for display.
func formatDirection(direction string) string {
	switch direction {
	case directionImproved:
		return "IMPROVED (harder to track)"
	case directionWorsened:
		return "WORSENED (easier to track)"
	case directionMixed:
		return "MIXED"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}

// formatFloatDelta formats a two-decimal delta with sign for display.
func formatFloatDelta(delta float64) string {
	if math.Abs(delta) < bitsEpsilon {
		return "0"
	}
	return fmt.Sprintf("%+.2f", delta)
}

func changedMark(changed bool) string {
	if changed {
		return "changed"
	}
	return "-"
}
