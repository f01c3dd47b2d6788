package report

import (
	"github.com/nao1215/vitals/internal/model"
)

// Table is a header and rows of cells. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Writer renders tables to some destination.
type Writer interface {
	WriteTable(t Table) error
}

// PagesHeader is the header of the pages list.
var PagesHeader = []string{"website", "url"}

// PagesTable builds the pages list: one (website, url) row per page.
func PagesTable(rows []model.PageRow) Table {
	t := Table{Header: PagesHeader, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Website, r.URL})
	}
	return t
}

// ScoresHeader is the header of the Lighthouse scores table.
var ScoresHeader = []string{
	"Website", "Page ID", "Alias", "URL", "Device",
	"Performance Score", "Accessibility Score", "Best Practices Score", "SEO Score",
}

// ScoresTable builds the latest Lighthouse scores table.
// Missing scores are written as model.NotAvailable.
func ScoresTable(rows []model.ScoreRow) Table {
	t := Table{Header: ScoresHeader, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		row := []string{r.Website, r.PageID, r.Alias, r.URL, r.Device}
		for _, v := range r.Scores.Values() {
			row = append(row, model.FormatMetric(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// HistoryHeader is the header of the timeline history table.
var HistoryHeader = append([]string{"Website", "Page ID", "Alias", "URL", "Device", "Date"}, model.TimelineMetrics...)

// HistoryTable builds the timeline history table.
func HistoryTable(rows []model.HistoryRow) Table {
	t := Table{Header: HistoryHeader, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		row := []string{r.Website, r.Page.ID.String(), r.Page.Alias, r.Page.URL, r.Page.Device, r.Entry.Date}
		for _, v := range r.Entry.Values() {
			row = append(row, model.FormatMetric(v))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WebsiteEntry is a website together with the env variable it maps to.
type WebsiteEntry struct {
	Website model.Website `json:"website"`
	EnvKey  string        `json:"env_key"`
}

// WebsitesTable lists websites with their env variable names.
func WebsitesTable(entries []WebsiteEntry) Table {
	t := Table{Header: []string{"Website ID", "Domain", "Env Variable"}, Rows: make([][]string, 0, len(entries))}
	for _, e := range entries {
		t.Rows = append(t.Rows, []string{e.Website.ID.String(), e.Website.DisplayName(), e.EnvKey})
	}
	return t
}

// SnapshotsTable lists stored score snapshots.
func SnapshotsTable(snapshots []model.SnapshotMeta) Table {
	t := Table{Header: []string{"ID", "Taken At", "Websites", "Pages"}, Rows: make([][]string, 0, len(snapshots))}
	for _, s := range snapshots {
		t.Rows = append(t.Rows, []string{
			itoa64(s.ID),
			s.TakenAt.Local().Format("2006-01-02 15:04:05"),
			itoa(s.Websites),
			itoa(s.Pages),
		})
	}
	return t
}

// ComparisonTable lists per-page score changes, one column per category
// formatted as "previous -> current (delta)".
func ComparisonTable(c *model.Comparison) Table {
	header := []string{"Website", "URL", "Device", "Change"}
	header = append(header, model.ScoreCategories...)
	t := Table{Header: header, Rows: make([][]string, 0, len(c.Pages))}
	for _, p := range c.Pages {
		row := []string{p.Website, p.URL, p.Device, string(p.Change)}
		prev, cur, deltas := p.Previous.Values(), p.Current.Values(), p.Deltas()
		for i := range cur {
			row = append(row, formatChange(prev[i], cur[i], deltas[i]))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
