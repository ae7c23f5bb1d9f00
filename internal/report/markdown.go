package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// textPolicy strips every HTML tag. Markdown renderers pass inline HTML
// through, and bidder names and recommendations come from an editable
// methodology file.
var textPolicy = bluemonday.StrictPolicy()

// inline returns s safe to embed in Markdown rendered as HTML.
func inline(s string) string {
	return textPolicy.Sanitize(s)
}

// MarkdownWriter outputs reports in Markdown format for documentation
// and sharing. Entropy composition is rendered as a Mermaid pie chart.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ValuationReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeEntropy(md, report.Entropy)
	w.writeValuation(md, report.Valuation)
	w.writeDefenses(md, report.Defenses)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteSummaries outputs a Markdown table of valuations.
func (w *MarkdownWriter) WriteSummaries(summaries []Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Fingerprint Valuations")
	md.PlainText("")

	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		if s.Error != "" {
			rows = append(rows, []string{"`" + s.Input + "`", "-", "-", "-", "-", "❌ " + inline(s.Error)})
			continue
		}
		rows = append(rows, []string{
			"`" + s.Input + "`",
			strconv.FormatFloat(s.TotalBits, 'f', 2, 64),
			titleCase(string(s.EntropyTier)),
			titleCase(string(s.Persona)),
			formatMoney(s.AnnualValue),
			fmt.Sprintf("%d (%s)", s.DefenseScore, titleCase(string(s.DefenseTier))),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Input", "Bits", "Uniqueness", "Persona", "Annual Value", "Defense"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and identifiers.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ValuationReport) {
	md.H1("Fingerprint Valuation Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Report ID", "`" + report.Meta.ReportID + "`"},
			{"Generated", report.Meta.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Payload Hash", "`" + report.Meta.PayloadHash + "`"},
		},
	})
	md.PlainText("")
}

// writeEntropy writes the uniqueness section with its component table.
func (w *MarkdownWriter) writeEntropy(md *markdown.Markdown, e model.EntropyBreakdown) {
	md.H2("Uniqueness")
	md.PlainText("")

	md.PlainTextf("**%s** in total: %s. Your browser is %s browsers.",
		formatBits(e.TotalBits), titleCase(string(e.Tier)), e.OneIn)
	md.PlainText("")

	rows := presentComponents(e)
	if len(rows) == 0 {
		md.PlainText("No fingerprint components observed.")
		md.PlainText("")
		return
	}

	table := make([][]string, len(rows))
	for i, r := range rows {
		table[i] = []string{componentLabel(r.name), strconv.FormatFloat(r.bits, 'f', 2, 64)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Component", "Bits"},
		Rows:   table,
	})
	md.PlainText("")

	w.writePieChart(md, rows)
	w.writeUniquenessAlert(md, e.Tier)
}

// writePieChart writes a mermaid pie chart of the entropy composition.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, rows []componentRow) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Entropy by Component (bits)"),
		piechart.WithShowData(true),
	)

	plotted := 0
	for _, r := range rows {
		if r.bits <= 0 {
			continue
		}
		chart.LabelAndFloatValue(componentLabel(r.name), r.bits)
		plotted++
	}
	if plotted == 0 {
		return
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeUniquenessAlert writes an alert matching the uniqueness tier.
func (w *MarkdownWriter) writeUniquenessAlert(md *markdown.Markdown, tier model.EntropyTier) {
	switch tier {
	case model.EntropyTierExtremelyUnique, model.EntropyTierVeryUnique:
		md.Cautionf("Your fingerprint is %s and can track you without cookies.", tier)
	case model.EntropyTierUnique:
		md.Warningf("Your fingerprint is %s among typical browsers.", tier)
	case model.EntropyTierSomewhatUnique:
		md.Note("Your fingerprint blends in partially.")
	default:
		md.Tip("Your fingerprint blends in with the crowd.")
	}
	md.PlainText("")
}

// writeValuation writes the auction section.
func (w *MarkdownWriter) writeValuation(md *markdown.Markdown, v model.Valuation) {
	md.H2("Market Value")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Persona", titleCase(string(v.Persona))},
			{"Winning Bid", fmt.Sprintf("%s CPM (%s)", formatMoney(v.Winner.Amount), inline(v.Winner.Bidder))},
			{"Average CPM", formatMoney(v.AverageCPM)},
			{"Annual Value", "**" + formatMoney(v.AnnualValue) + "**"},
		},
	})
	md.PlainText("")

	bidders := make([][]string, len(v.Bidders))
	for i, b := range v.Bidders {
		bidders[i] = []string{inline(b.Bidder), inline(b.Interest), formatMoney(b.Amount)}
	}
	md.Details("Simulated bids", markdown.NewMarkdown(io.Discard).Table(markdown.TableSet{
		Header: []string{"Bidder", "Interest", "CPM"},
		Rows:   bidders,
	}).String())
	md.PlainText("")
}

// writeDefenses writes the protection score and recommendations.
func (w *MarkdownWriter) writeDefenses(md *markdown.Markdown, d model.DefenseStatus) {
	md.H2("Defenses")
	md.PlainText("")

	md.PlainTextf("Score: **%d/100** (%s)", d.Score, titleCase(string(d.Tier)))
	md.PlainText("")

	if len(d.Recommendations) == 0 {
		md.Tip("All known protections are active.")
		md.PlainText("")
		return
	}

	md.H3("Recommendations")
	md.PlainText("")
	recs := make([]string, len(d.Recommendations))
	for i, r := range d.Recommendations {
		recs[i] = inline(r)
	}
	md.OrderedList(recs...)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Figures assume independent signals and a simulated auction.*")
}
