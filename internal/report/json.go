package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/panopticlick/Panopticlick-sub001/internal/model"
)

// JSONWriter outputs values in their JSON wire format, one document per call
// followed by a newline. HTML characters are not escaped, so user agents and
// font names stay readable.
type JSONWriter struct {
	baseWriter
	prefix string
	indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values by indent, each line starting with prefix.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents by two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter writing compact JSON unless an
// indentation option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one report.
func (w *JSONWriter) Write(report *model.ValuationReport) (int, error) {
	return w.WriteValue(report)
}

// WriteSummaries outputs the summaries as an array; never null.
func (w *JSONWriter) WriteSummaries(summaries []Summary) (int, error) {
	if summaries == nil {
		summaries = []Summary{}
	}
	return w.WriteValue(summaries)
}

// WriteValue outputs any JSON-encodable value, such as a report comparison.
// Nothing is written if encoding fails.
func (w *JSONWriter) WriteValue(v any) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.prefix != "" || w.indent != "" {
		enc.SetIndent(w.prefix, w.indent)
	}
	if err := enc.Encode(v); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
