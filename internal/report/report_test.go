package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nao1215/vitals/internal/model"
)

var testTime = time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)

func testScoreRows() []model.ScoreRow {
	return []model.ScoreRow{
		{Website: "SHOP", PageID: "p1", Alias: "Home", URL: "https://shop.example/", Device: "mobile",
			Scores: model.LighthouseScore{
				Performance:   model.Float(0.92),
				Accessibility: model.Float(0.88),
				BestPractices: model.Float(1),
				SEO:           model.Float(0.9),
			}},
		{Website: "SHOP", PageID: "p2", Alias: "Cart", URL: "https://shop.example/cart", Device: "desktop",
			Scores: model.LighthouseScore{Performance: model.Float(0.38)}},
		{Website: "BLOG", PageID: "b1", Alias: "", URL: "https://blog.example/", Device: "mobile"},
	}
}

// readCSV parses a CSV file into records.
func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("failed to open %s: %v", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	return records
}

func TestPagesTable(t *testing.T) {
	t.Parallel()

	table := PagesTable([]model.PageRow{
		{Website: "SHOP", URL: "https://shop.example/"},
		{Website: "SHOP", URL: "https://shop.example/a,b"},
	})
	want := Table{
		Header: []string{"website", "url"},
		Rows: [][]string{
			{"SHOP", "https://shop.example/"},
			{"SHOP", "https://shop.example/a,b"},
		},
	}
	if diff := cmp.Diff(want, table); diff != "" {
		t.Errorf("table mismatch (-want +got):\n%s", diff)
	}
}

func TestScoresTable(t *testing.T) {
	t.Parallel()

	table := ScoresTable(testScoreRows())
	if table.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.Len())
	}
	want := []string{"SHOP", "p2", "Cart", "https://shop.example/cart", "desktop", "0.38", "N/A", "N/A", "N/A"}
	if diff := cmp.Diff(want, table.Rows[1]); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
	for _, row := range table.Rows {
		if len(row) != len(table.Header) {
			t.Errorf("row has %d cells, header has %d", len(row), len(table.Header))
		}
	}
}

func TestHistoryTable(t *testing.T) {
	t.Parallel()

	table := HistoryTable([]model.HistoryRow{{
		Website: "SHOP",
		Page:    model.Page{ID: "p1", Alias: "Home", URL: "https://shop.example/", Device: "mobile"},
		Entry:   model.TimelineEntry{Date: "2026-10-01", LCP: model.Float(2100), CLS: model.Float(0.05)},
	}})

	if len(table.Header) != 6+len(model.TimelineMetrics) {
		t.Fatalf("unexpected header length %d", len(table.Header))
	}
	row := table.Rows[0]
	if row[5] != "2026-10-01" || row[6] != "2100" || row[10] != "0.05" || row[7] != "N/A" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestWriteCSVFile(t *testing.T) {
	t.Parallel()

	t.Run("M rows produce M data rows plus a header", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		path, err := WriteCSVFile(dir, PagesFilePrefix, testTime, PagesTable([]model.PageRow{
			{Website: "SHOP", URL: "https://shop.example/"},
			{Website: "SHOP", URL: "https://shop.example/cart"},
			{Website: "BLOG", URL: "https://blog.example/"},
		}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if filepath.Base(path) != "pages_list_20261019_143005.csv" {
			t.Errorf("unexpected file name %s", filepath.Base(path))
		}

		records := readCSV(t, path)
		if len(records) != 4 {
			t.Fatalf("expected 4 lines, got %d", len(records))
		}
		if diff := cmp.Diff([]string{"website", "url"}, records[0]); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty table writes nothing", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := WriteCSVFile(dir, PagesFilePrefix, testTime, PagesTable(nil))
		if !errors.Is(err, ErrNoRows) {
			t.Fatalf("expected ErrNoRows, got %v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty directory, got %d entries", len(entries))
		}
	})

	t.Run("existing file gets a suffix", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		table := ScoresTable(testScoreRows())
		first, err := WriteCSVFile(dir, ScoresFilePrefix, testTime, table)
		if err != nil {
			t.Fatal(err)
		}
		second, err := WriteCSVFile(dir, ScoresFilePrefix, testTime, table)
		if err != nil {
			t.Fatal(err)
		}
		if first == second {
			t.Fatal("expected distinct file names")
		}
		if filepath.Base(second) != "lighthouse_scores_20261019_143005_2.csv" {
			t.Errorf("unexpected second name %s", filepath.Base(second))
		}
	})

	t.Run("creates the output directory", func(t *testing.T) {
		t.Parallel()

		dir := filepath.Join(t.TempDir(), "csv", "nested")
		path, err := WriteCSVFile(dir, HistoryFilePrefix, testTime, PagesTable([]model.PageRow{{Website: "A", URL: "u"}}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected file to exist: %v", err)
		}
	})
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewSimpleWriter(&buf).WriteTable(WebsitesTable([]WebsiteEntry{
		{Website: model.Website{ID: "w1", Domain: "xn--caf-dma.example"}, EnvKey: "PAGEVITALS_WEBSITE_CAFE_EXAMPLE"},
	})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"w1", "café.example", "PAGEVITALS_WEBSITE_CAFE_EXAMPLE"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewJSONWriter(&buf, WithPrettyPrint()).WriteTable(PagesTable([]model.PageRow{{Website: "A", URL: "u"}})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	if diff := cmp.Diff([]map[string]string{{"website": "A", "url": "u"}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestMarkdownWriter_WriteScoresSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).WriteScoresSummary(testScoreRows(), testTime); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Lighthouse Scores",
		"## Averages by Website",
		"| BLOG",
		"0.65", // SHOP performance average of 0.92 and 0.38
		"mermaid",
		"poor performance score",
		"https://shop.example/cart",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestMarkdownWriter_WriteComparison(t *testing.T) {
	t.Parallel()

	rows := testScoreRows()
	improved := rows[1]
	improved.Scores = model.LighthouseScore{Performance: model.Float(0.6)}

	c := model.CompareSnapshots(
		model.Snapshot{ID: 1, TakenAt: testTime.Add(-time.Hour), Rows: rows},
		model.Snapshot{ID: 2, TakenAt: testTime, Rows: []model.ScoreRow{rows[0], improved}},
	)

	var buf bytes.Buffer
	if err := NewMarkdownWriter(&buf).WriteComparison(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Improved: 1", "Removed: 1", "0.38 -> 0.6 (+0.22)", "#1", "#2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want string
	}{
		{0.1, "+0.1"},
		{-0.25, "-0.25"},
		{0, "±0"},
		{0.6 - 0.42, "+0.18"},
	}
	for _, tt := range tests {
		if got := formatDelta(tt.in); got != tt.want {
			t.Errorf("formatDelta(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reports", "scores.md")
	if err := WriteFile(path, []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WriteFile(path, []byte("second")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("expected file to be replaced, got %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the report file, got %d entries", len(entries))
	}
}
