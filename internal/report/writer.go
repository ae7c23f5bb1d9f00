package report

import (
	"io"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// Writer renders valuation results. Implementations write each call's output
// in full and return the byte count.
type Writer interface {
	// Write renders one complete report.
	Write(report *model.ValuationReport) (int, error)

	// WriteSummaries renders one line or row per input of a batch run,
	// failed inputs included.
	WriteSummaries(summaries []Summary) (int, error)
}

// MultiWriter fans every call out to several Writers, for example a
// Markdown file and a terminal summary.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter returns a Writer over writers, called in order.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write calls Write on each writer and stops at the first error.
// The count is the sum over the writers that ran.
func (m *MultiWriter) Write(report *model.ValuationReport) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.Write(report) })
}

// WriteSummaries calls WriteSummaries on each writer and stops at the
// first error.
func (m *MultiWriter) WriteSummaries(summaries []Summary) (int, error) {
	return m.each(func(w Writer) (int, error) { return w.WriteSummaries(summaries) })
}

func (m *MultiWriter) each(call func(Writer) (int, error)) (int, error) {
	total := 0
	for _, w := range m.writers {
		n, err := call(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter holds the destination shared by the concrete writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
