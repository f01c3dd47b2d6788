package model

import (
	"sort"
	"time"
)

// Snapshot is one stored run of 'vitals scores'.
type Snapshot struct {
	ID          int64      `json:"id"`
	TakenAt     time.Time  `json:"taken_at"`
	Fingerprint string     `json:"fingerprint"`
	Rows        []ScoreRow `json:"rows,omitempty"`
}

// SnapshotMeta summarizes a stored snapshot without its rows.
type SnapshotMeta struct {
	ID       int64     `json:"id"`
	TakenAt  time.Time `json:"taken_at"`
	Websites int       `json:"websites"`
	Pages    int       `json:"pages"`
}

// Change classifies a page between two snapshots.
type Change string

// Page changes between snapshots.
const (
	ChangeAdded     Change = "added"
	ChangeRemoved   Change = "removed"
	ChangeImproved  Change = "improved"
	ChangeRegressed Change = "regressed"
	ChangeUnchanged Change = "unchanged"
)

// PageDelta is the score change of one page between two snapshots.
type PageDelta struct {
	Website  string          `json:"website"`
	PageID   string          `json:"page_id"`
	URL      string          `json:"url"`
	Device   string          `json:"device"`
	Change   Change          `json:"change"`
	Previous LighthouseScore `json:"previous"`
	Current  LighthouseScore `json:"current"`
}

// Deltas returns current minus previous for each category in
// ScoreCategories order. A nil entry means one side is missing.
func (d PageDelta) Deltas() []*float64 {
	prev, cur := d.Previous.Values(), d.Current.Values()
	out := make([]*float64, len(cur))
	for i := range cur {
		if prev[i] != nil && cur[i] != nil {
			out[i] = Float(*cur[i] - *prev[i])
		}
	}
	return out
}

// Comparison is the result of comparing two snapshots.
type Comparison struct {
	Previous SnapshotMeta `json:"previous"`
	Current  SnapshotMeta `json:"current"`
	Pages    []PageDelta  `json:"pages"`
}

// Count returns the number of pages with the given change.
func (c *Comparison) Count(change Change) int {
	n := 0
	for _, p := range c.Pages {
		if p.Change == change {
			n++
		}
	}
	return n
}

// Meta returns the snapshot summary.
func (s Snapshot) Meta() SnapshotMeta {
	websites := make(map[string]bool)
	for _, r := range s.Rows {
		websites[r.Website] = true
	}
	return SnapshotMeta{ID: s.ID, TakenAt: s.TakenAt, Websites: len(websites), Pages: len(s.Rows)}
}

// CompareSnapshots compares every page of previous and current.
// Pages are matched by website, page ID and device. A matched page is
// improved or regressed by the sum of its category deltas.
// The result is sorted by website, then URL, then device.
func CompareSnapshots(previous, current Snapshot) *Comparison {
	prevRows := make(map[string]ScoreRow, len(previous.Rows))
	for _, r := range previous.Rows {
		prevRows[r.Key()] = r
	}

	cmp := &Comparison{Previous: previous.Meta(), Current: current.Meta()}
	seen := make(map[string]bool, len(current.Rows))
	for _, cur := range current.Rows {
		seen[cur.Key()] = true
		d := PageDelta{
			Website: cur.Website,
			PageID:  cur.PageID,
			URL:     cur.URL,
			Device:  cur.Device,
			Current: cur.Scores,
		}
		prev, ok := prevRows[cur.Key()]
		if !ok {
			d.Change = ChangeAdded
		} else {
			d.Previous = prev.Scores
			d.Change = classify(d.Deltas())
		}
		cmp.Pages = append(cmp.Pages, d)
	}
	for _, prev := range previous.Rows {
		if seen[prev.Key()] {
			continue
		}
		cmp.Pages = append(cmp.Pages, PageDelta{
			Website:  prev.Website,
			PageID:   prev.PageID,
			URL:      prev.URL,
			Device:   prev.Device,
			Change:   ChangeRemoved,
			Previous: prev.Scores,
		})
	}

	sort.SliceStable(cmp.Pages, func(i, j int) bool {
		a, b := cmp.Pages[i], cmp.Pages[j]
		if a.Website != b.Website {
			return a.Website < b.Website
		}
		if a.URL != b.URL {
			return a.URL < b.URL
		}
		return a.Device < b.Device
	})
	return cmp
}

// scoreEpsilon ignores float noise when classifying changes.
const scoreEpsilon = 1e-9

func classify(deltas []*float64) Change {
	var sum float64
	for _, d := range deltas {
		if d != nil {
			sum += *d
		}
	}
	switch {
	case sum > scoreEpsilon:
		return ChangeImproved
	case sum < -scoreEpsilon:
		return ChangeRegressed
	default:
		return ChangeUnchanged
	}
}
