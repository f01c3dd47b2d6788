package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs values as JSON for tool integration.
type JSONWriter struct {
	output io.Writer

	// indent enables pretty-printed output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{output: output}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Encode writes v followed by a newline.
func (w *JSONWriter) Encode(v any) error {
	enc := json.NewEncoder(w.output)
	if w.indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// WriteTable writes t as an array of objects keyed by header.
func (w *JSONWriter) WriteTable(t Table) error {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			if i < len(r) {
				rec[h] = r[i]
			}
		}
		records = append(records, rec)
	}
	return w.Encode(records)
}
