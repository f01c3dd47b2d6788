package model

// Page is a URL monitored by PageVitals for one website.
// A page has no identity of its own beyond its website; the ID is only
// meaningful inside that website's API paths.
type Page struct {
	// ID identifies the page within its website.
	ID ID `json:"id"`

	// Alias is the user-assigned label of the page.
	Alias string `json:"alias"`

	// URL is the monitored address.
	URL string `json:"url"`

	// Device is the emulated device of the measurements ("desktop" or "mobile").
	Device string `json:"device"`

	// Latest holds the most recent Lighthouse scores.
	// Nil when the page has not been measured yet.
	Latest *LighthouseScore `json:"latest,omitempty"`
}

// Scores returns the latest Lighthouse scores, or an empty score set when
// the page has not been measured.
func (p Page) Scores() LighthouseScore {
	if p.Latest == nil {
		return LighthouseScore{}
	}
	return *p.Latest
}

// PageRow is a (website, page URL) pair as written to the pages list.
type PageRow struct {
	Website string
	URL     string
}

// ScoreRow is one page's latest scores together with its website.
type ScoreRow struct {
	Website string          `json:"website"`
	PageID  string          `json:"page_id"`
	Alias   string          `json:"alias"`
	URL     string          `json:"url"`
	Device  string          `json:"device"`
	Scores  LighthouseScore `json:"scores"`
}

// NewScoreRow flattens a page of the given website into a ScoreRow.
func NewScoreRow(website string, page Page) ScoreRow {
	return ScoreRow{
		Website: website,
		PageID:  page.ID.String(),
		Alias:   page.Alias,
		URL:     page.URL,
		Device:  page.Device,
		Scores:  page.Scores(),
	}
}

// Key identifies the row's page across snapshots.
func (r ScoreRow) Key() string {
	return r.Website + "\x00" + r.PageID + "\x00" + r.Device
}

// HistoryRow is one timeline entry of a page together with its website.
type HistoryRow struct {
	Website string
	Page    Page
	Entry   TimelineEntry
}
