package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/vitals/internal/fsutil"
)

// CSV file name prefixes.
const (
	PagesFilePrefix   = "pages_list"
	ScoresFilePrefix  = "lighthouse_scores"
	HistoryFilePrefix = "lighthouse_history"
)

// FileTimeLayout is the timestamp format used in output file names.
const FileTimeLayout = "20060102_150405"

// ErrNoRows is returned when asked to write a table without data rows.
// Empty results never produce a file.
var ErrNoRows = errors.New("no rows to write")

// CSVWriter writes tables as CSV.
type CSVWriter struct {
	output io.Writer
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{output: output}
}

// WriteTable writes the header followed by every row.
func (w *CSVWriter) WriteTable(t Table) error {
	cw := csv.NewWriter(w.output)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// CSVFileName returns "<prefix>_<timestamp>.csv".
func CSVFileName(prefix string, at time.Time) string {
	return prefix + "_" + at.Format(FileTimeLayout) + ".csv"
}

// WriteCSVFile writes t to a new timestamped CSV file in dir and returns its
// path. The directory is created if needed. If a file with the same name
// already exists a numeric suffix is added. A table with no rows is
// rejected with ErrNoRows and nothing is created.
func WriteCSVFile(dir, prefix string, at time.Time, t Table) (string, error) {
	if t.Len() == 0 {
		return "", ErrNoRows
	}

	var buf bytes.Buffer
	if err := NewCSVWriter(&buf).WriteTable(t); err != nil {
		return "", fmt.Errorf("failed to encode CSV: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path, err := availablePath(dir, CSVFileName(prefix, at))
	if err != nil {
		return "", err
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// WriteFile atomically replaces path with data, creating the parent
// directory if needed.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// availablePath returns dir/name, or dir/<base>_N<ext> when that exists.
func availablePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, name)
		if n > 1 {
			candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, ext))
		}
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
