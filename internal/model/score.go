package model

import "strconv"

// NotAvailable is written in place of a metric the API did not return.
const NotAvailable = "N/A"

// LighthouseScore holds the four Lighthouse category scores of a page.
// Each score is optional: nil means the API did not report it.
type LighthouseScore struct {
	Performance   *float64 `json:"performance_score,omitempty"`
	Accessibility *float64 `json:"accessibility_score,omitempty"`
	BestPractices *float64 `json:"best_practices_score,omitempty"`
	SEO           *float64 `json:"seo_score,omitempty"`
}

// Values returns the scores in CSV column order:
// Performance, Accessibility, Best Practices, SEO.
func (s LighthouseScore) Values() []*float64 {
	return []*float64{s.Performance, s.Accessibility, s.BestPractices, s.SEO}
}

// ScoreCategories are the display names of LighthouseScore.Values.
var ScoreCategories = []string{"Performance", "Accessibility", "Best Practices", "SEO"}

// FormatMetric renders an optional metric, using NotAvailable for nil.
func FormatMetric(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Float returns a pointer to v. It is a convenience for building scores.
func Float(v float64) *float64 {
	return &v
}

// TimelineEntry is one day of historical measurements for a page.
type TimelineEntry struct {
	Date         string   `json:"date"`
	LCP          *float64 `json:"lcp,omitempty"`
	FCP          *float64 `json:"fcp,omitempty"`
	SpeedIndex   *float64 `json:"speed_index,omitempty"`
	TBT          *float64 `json:"tbt,omitempty"`
	CLS          *float64 `json:"cls,omitempty"`
	TTFB         *float64 `json:"ttfb,omitempty"`
	TTI          *float64 `json:"tti,omitempty"`
	DOMElements  *float64 `json:"dom_elements,omitempty"`
	DOMMaxDepth  *float64 `json:"dom_max_depth,omitempty"`
	DOMReady     *float64 `json:"dom_ready,omitempty"`
	OnLoad       *float64 `json:"on_load,omitempty"`
	DNSTime      *float64 `json:"dns_time,omitempty"`
	ConnectTime  *float64 `json:"connect_time,omitempty"`
	ServerTime   *float64 `json:"server_time,omitempty"`
	TransferTime *float64 `json:"transfer_time,omitempty"`
}

// TimelineMetrics are the column names of TimelineEntry.Values.
var TimelineMetrics = []string{
	"LCP", "FCP", "Speed Index", "TBT", "CLS", "TTFB", "TTI",
	"DOM Elements", "DOM Max Depth", "DOM Ready", "On Load",
	"DNS Time", "Connect Time", "Server Time", "Transfer Time",
}

// Values returns the metrics in TimelineMetrics order.
func (e TimelineEntry) Values() []*float64 {
	return []*float64{
		e.LCP, e.FCP, e.SpeedIndex, e.TBT, e.CLS, e.TTFB, e.TTI,
		e.DOMElements, e.DOMMaxDepth, e.DOMReady, e.OnLoad,
		e.DNSTime, e.ConnectTime, e.ServerTime, e.TransferTime,
	}
}
