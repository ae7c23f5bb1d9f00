package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose lists every bidder instead of only the winner.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *SimpleWriter) Write(report *model.ValuationReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeEntropy(&sb, report.Entropy)
	w.writeValuation(&sb, report.Valuation)
	w.writeDefenses(&sb, report.Defenses)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// WriteSummaries outputs one line per valuation.
func (w *SimpleWriter) WriteSummaries(summaries []Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-30s  %-10s  %-18s  %-18s  %-10s  %s\n",
		"Input", "Bits", "Uniqueness", "Persona", "Annual", "Defense")
	sb.WriteString(strings.Repeat("-", 110))
	sb.WriteString("\n")

	failed := 0
	for _, s := range summaries {
		if s.Error != "" {
			failed++
			fmt.Fprintf(&sb, "%-30s  ERROR: %s\n", truncateString(s.Input, 30), s.Error)
			continue
		}
		fmt.Fprintf(&sb, "%-30s  %-10.2f  %-18s  %-18s  %-10s  %d (%s)\n",
			truncateString(s.Input, 30),
			s.TotalBits,
			titleCase(string(s.EntropyTier)),
			titleCase(string(s.Persona)),
			formatMoney(s.AnnualValue),
			s.DefenseScore,
			titleCase(string(s.DefenseTier)),
		)
	}

	fmt.Fprintf(&sb, "\n%d valued, %d failed\n", len(summaries)-failed, failed)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report banner and identifiers.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ValuationReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                   FINGERPRINT VALUATION REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Report ID:    %s\n", report.Meta.ReportID)
	fmt.Fprintf(sb, "Generated:    %s\n", report.Meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Payload Hash: %s\n", report.Meta.PayloadHash)
	sb.WriteString("\n")
}

// writeSection writes a dashed section heading.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeEntropy writes the uniqueness section.
func (w *SimpleWriter) writeEntropy(sb *strings.Builder, e model.EntropyBreakdown) {
	w.writeSection(sb, "UNIQUENESS")

	fmt.Fprintf(sb, "  Total:      %s\n", formatBits(e.TotalBits))
	fmt.Fprintf(sb, "  Uniqueness: %s\n", titleCase(string(e.Tier)))
	fmt.Fprintf(sb, "  Rarity:     %s browsers\n", e.OneIn)
	sb.WriteString("\n")

	rows := presentComponents(e)
	if len(rows) == 0 {
		sb.WriteString("  No fingerprint components observed\n\n")
		return
	}
	for _, r := range rows {
		fmt.Fprintf(sb, "  %-16s %6.2f bits\n", componentLabel(r.name), r.bits)
	}
	sb.WriteString("\n")
}

// writeValuation writes the auction section.
func (w *SimpleWriter) writeValuation(sb *strings.Builder, v model.Valuation) {
	w.writeSection(sb, "MARKET VALUE")

	fmt.Fprintf(sb, "  Persona:      %s\n", titleCase(string(v.Persona)))
	fmt.Fprintf(sb, "  Winning bid:  %s CPM (%s, %s)\n", formatMoney(v.Winner.Amount), v.Winner.Bidder, v.Winner.Interest)
	fmt.Fprintf(sb, "  Average CPM:  %s\n", formatMoney(v.AverageCPM))
	fmt.Fprintf(sb, "  Annual value: %s\n", formatMoney(v.AnnualValue))
	sb.WriteString("\n")

	if !w.verbose {
		return
	}
	sb.WriteString("  Bidders:\n")
	for _, b := range v.Bidders {
		fmt.Fprintf(sb, "    %-28s %8s  %s\n", b.Bidder, formatMoney(b.Amount), b.Interest)
	}
	sb.WriteString("\n")
}

// writeDefenses writes the protection score and recommendations.
func (w *SimpleWriter) writeDefenses(sb *strings.Builder, d model.DefenseStatus) {
	w.writeSection(sb, "DEFENSES")

	fmt.Fprintf(sb, "  Score: %d/100 (%s)\n\n", d.Score, titleCase(string(d.Tier)))

	if len(d.Recommendations) == 0 {
		sb.WriteString("  All known protections are active\n\n")
		return
	}
	sb.WriteString("  Recommendations:\n")
	for i, rec := range d.Recommendations {
		fmt.Fprintf(sb, "  %d. %s\n", i+1, rec)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Figures assume independent signals and a simulated auction.\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
