package report

import (
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/vitals/internal/model"
)

// Performance rating thresholds on the 0-100 scale, as used by Lighthouse.
const (
	goodThreshold = 90
	poorThreshold = 50
)

// MarkdownWriter outputs tables and summaries in Markdown.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// WriteTable writes t as a GitHub-flavored Markdown table.
func (w *MarkdownWriter) WriteTable(t Table) error {
	md := markdown.NewMarkdown(w.output)
	md.Table(markdown.TableSet{Header: t.Header, Rows: t.Rows})
	return md.Build()
}

// WriteScoresSummary writes a Lighthouse scores report: per-website averages,
// a performance rating chart and the full per-page table.
func (w *MarkdownWriter) WriteScoresSummary(rows []model.ScoreRow, generatedAt time.Time) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Lighthouse Scores")
	md.PlainText("")

	summaries := summarizeByWebsite(rows)
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Generated", generatedAt.Format("2006-01-02 15:04:05 MST")},
			{"Websites", strconv.Itoa(len(summaries))},
			{"Pages", strconv.Itoa(len(rows))},
		},
	})
	md.PlainText("")

	md.H2("Averages by Website")
	md.PlainText("")
	averages := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		row := []string{s.website, strconv.Itoa(s.pages)}
		for _, avg := range s.averages() {
			row = append(row, model.FormatMetric(avg))
		}
		averages = append(averages, row)
	}
	md.Table(markdown.TableSet{
		Header: append([]string{"Website", "Pages"}, model.ScoreCategories...),
		Rows:   averages,
	})
	md.PlainText("")

	good, average, poor, unmeasured := rateRows(rows)
	w.writeRatingChart(md, good, average, poor, unmeasured)
	switch {
	case poor > 0:
		md.Warningf("%d page(s) have a poor performance score (below %d).", poor, poorThreshold)
	case unmeasured == len(rows):
		md.Note("No page has been measured yet.")
	default:
		md.Tip("No page has a poor performance score.")
	}
	md.PlainText("")

	md.H2("Pages")
	md.PlainText("")
	scores := ScoresTable(rows)
	md.Table(markdown.TableSet{Header: scores.Header, Rows: scores.Rows})
	md.PlainText("")

	writeFooter(md)
	return md.Build()
}

// WriteComparison writes a snapshot comparison report.
func (w *MarkdownWriter) WriteComparison(c *model.Comparison) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Lighthouse Score Comparison")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"", "Previous", "Current"},
		Rows: [][]string{
			{"Snapshot", "#" + itoa64(c.Previous.ID), "#" + itoa64(c.Current.ID)},
			{"Taken At", c.Previous.TakenAt.Format("2006-01-02 15:04"), c.Current.TakenAt.Format("2006-01-02 15:04")},
			{"Websites", itoa(c.Previous.Websites), itoa(c.Current.Websites)},
			{"Pages", itoa(c.Previous.Pages), itoa(c.Current.Pages)},
		},
	})
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.BulletList(
		"Improved: "+itoa(c.Count(model.ChangeImproved)),
		"Regressed: "+itoa(c.Count(model.ChangeRegressed)),
		"Unchanged: "+itoa(c.Count(model.ChangeUnchanged)),
		"Added: "+itoa(c.Count(model.ChangeAdded)),
		"Removed: "+itoa(c.Count(model.ChangeRemoved)),
	)
	md.PlainText("")
	if n := c.Count(model.ChangeRegressed); n > 0 {
		md.Cautionf("%d page(s) regressed since snapshot #%d.", n, c.Previous.ID)
		md.PlainText("")
	}

	if len(c.Pages) > 0 {
		md.H2("Pages")
		md.PlainText("")
		t := ComparisonTable(c)
		md.Table(markdown.TableSet{Header: t.Header, Rows: t.Rows})
		md.PlainText("")
	}

	writeFooter(md)
	return md.Build()
}

// writeRatingChart writes a mermaid pie chart of performance ratings.
func (w *MarkdownWriter) writeRatingChart(md *markdown.Markdown, good, average, poor, unmeasured int) {
	if good+average+poor == 0 {
		return
	}
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Performance Rating"),
		piechart.WithShowData(true),
	)
	for _, slice := range []struct {
		label string
		count int
	}{
		{"Good", good},
		{"Needs Improvement", average},
		{"Poor", poor},
		{"Not Measured", unmeasured},
	} {
		if slice.count > 0 {
			chart.LabelAndIntValue(slice.label, uint64(slice.count))
		}
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by vitals from the PageVitals API*")
}

// percent maps a score to the 0-100 scale. PageVitals reports either
// fractions (0-1) or percentages depending on the endpoint.
func percent(v float64) float64 {
	if v <= 1 {
		return v * 100
	}
	return v
}

// rateRows counts pages by performance rating.
func rateRows(rows []model.ScoreRow) (good, average, poor, unmeasured int) {
	for _, r := range rows {
		p := r.Scores.Performance
		switch {
		case p == nil:
			unmeasured++
		case percent(*p) >= goodThreshold:
			good++
		case percent(*p) < poorThreshold:
			poor++
		default:
			average++
		}
	}
	return good, average, poor, unmeasured
}

type websiteSummary struct {
	website string
	pages   int
	sums    []float64
	counts  []int
}

// averages returns the mean of each category, nil where nothing was measured.
func (s *websiteSummary) averages() []*float64 {
	out := make([]*float64, len(s.sums))
	for i := range s.sums {
		if s.counts[i] > 0 {
			out[i] = model.Float(roundScore(s.sums[i] / float64(s.counts[i])))
		}
	}
	return out
}

func roundScore(v float64) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	return f
}

// summarizeByWebsite groups rows by website, sorted by website name.
func summarizeByWebsite(rows []model.ScoreRow) []*websiteSummary {
	byName := make(map[string]*websiteSummary)
	for _, r := range rows {
		s, ok := byName[r.Website]
		if !ok {
			n := len(model.ScoreCategories)
			s = &websiteSummary{website: r.Website, sums: make([]float64, n), counts: make([]int, n)}
			byName[r.Website] = s
		}
		s.pages++
		for i, v := range r.Scores.Values() {
			if v != nil {
				s.sums[i] += *v
				s.counts[i]++
			}
		}
	}

	out := make([]*websiteSummary, 0, len(byName))
	for _, s := range byName {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].website < out[j].website })
	return out
}
