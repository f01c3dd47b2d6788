package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nao1215/vitals/internal/model"
)

// SimpleWriter renders tables for the terminal.
type SimpleWriter struct {
	output io.Writer
	style  table.Style
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithStyle sets the go-pretty table style.
func WithStyle(style table.Style) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.style = style
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{output: output, style: table.StyleRounded}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteTable renders t as a box-drawn table.
func (w *SimpleWriter) WriteTable(t Table) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w.output)
	tw.SetStyle(w.style)

	header := make(table.Row, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(table.Row, len(r))
		for i, cell := range r {
			row[i] = cell
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}

// WriteComparison prints a comparison summary followed by the per-page table.
func (w *SimpleWriter) WriteComparison(c *model.Comparison) error {
	if _, err := fmt.Fprintf(w.output, "Comparing snapshot #%d (%s) with #%d (%s)\n\n",
		c.Previous.ID, c.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"),
		c.Current.ID, c.Current.TakenAt.Local().Format("2006-01-02 15:04:05"),
	); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.output, "Improved: %d  Regressed: %d  Unchanged: %d  Added: %d  Removed: %d\n\n",
		c.Count(model.ChangeImproved), c.Count(model.ChangeRegressed), c.Count(model.ChangeUnchanged),
		c.Count(model.ChangeAdded), c.Count(model.ChangeRemoved),
	); err != nil {
		return err
	}
	if len(c.Pages) == 0 {
		_, err := fmt.Fprintln(w.output, "No pages in either snapshot.")
		return err
	}
	return w.WriteTable(ComparisonTable(c))
}
