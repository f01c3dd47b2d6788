package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/vitals/internal/model"
)

// PageLister lists the pages of a website.
// *pagevitals.Client implements it.
type PageLister interface {
	ListPages(ctx context.Context, websiteID model.ID) ([]model.Page, error)
}

// TimelineFetcher fetches the measurement history of a page.
// *pagevitals.Client implements it.
type TimelineFetcher interface {
	PageTimeline(ctx context.Context, websiteID, pageID model.ID, start, end time.Time, device string) ([]model.TimelineEntry, error)
}

// PagesStep fetches the pages of the website with their latest scores.
type PagesStep struct {
	lister PageLister
	logger *slog.Logger
}

// NewPagesStep creates a PagesStep.
func NewPagesStep(lister PageLister, logger *slog.Logger) *PagesStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PagesStep{lister: lister, logger: logger}
}

// Name returns the step name.
func (s *PagesStep) Name() string {
	return "pages"
}

// Do executes the step.
func (s *PagesStep) Do(ctx context.Context, c *Collection) error {
	pages, err := s.lister.ListPages(ctx, c.Website.ID)
	if err != nil {
		return err
	}
	c.Pages = pages
	s.logger.Info("retrieved pages", "website", c.Website.Name, "count", len(pages))
	return nil
}

// TimelineStep fetches the timeline of every collected page over the last
// days days, using each page's own device.
type TimelineStep struct {
	fetcher TimelineFetcher
	days    int
	now     func() time.Time
	logger  *slog.Logger
}

// TimelineStepOption configures a TimelineStep.
type TimelineStepOption func(*TimelineStep)

// WithClock sets the time source used to compute the date range.
func WithClock(now func() time.Time) TimelineStepOption {
	return func(s *TimelineStep) {
		s.now = now
	}
}

// WithTimelineLogger sets a custom logger for the step.
func WithTimelineLogger(logger *slog.Logger) TimelineStepOption {
	return func(s *TimelineStep) {
		s.logger = logger
	}
}

// NewTimelineStep creates a TimelineStep covering the last days days.
func NewTimelineStep(fetcher TimelineFetcher, days int, opts ...TimelineStepOption) *TimelineStep {
	s := &TimelineStep{
		fetcher: fetcher,
		days:    days,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the step name.
func (s *TimelineStep) Name() string {
	return "timeline"
}

// Range returns the start and end dates of the requested history.
func (s *TimelineStep) Range() (time.Time, time.Time) {
	end := s.now()
	return end.AddDate(0, 0, -s.days), end
}

// Do executes the step. Pages must have been collected by PagesStep.
func (s *TimelineStep) Do(ctx context.Context, c *Collection) error {
	start, end := s.Range()
	for _, page := range c.Pages {
		entries, err := s.fetcher.PageTimeline(ctx, c.Website.ID, page.ID, start, end, page.Device)
		if err != nil {
			return err
		}
		for _, e := range entries {
			c.History = append(c.History, model.HistoryRow{Website: c.Website.Name, Page: page, Entry: e})
		}
		s.logger.Debug("retrieved timeline",
			"website", c.Website.Name,
			"page", page.ID,
			"entries", len(entries),
		)
	}
	return nil
}
