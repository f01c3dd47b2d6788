package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/vitals/internal/model"
)

// Collection accumulates the data fetched for one website.
type Collection struct {
	// Website is the configured website being collected.
	Website model.ConfiguredWebsite

	// Pages are the website's pages with their latest scores.
	Pages []model.Page

	// History holds timeline entries of every page, in page order.
	History []model.HistoryRow

	// Steps lists the names of the steps that completed.
	Steps []string
}

// NewCollection returns an empty collection for website.
func NewCollection(website model.ConfiguredWebsite) *Collection {
	return &Collection{Website: website}
}

// PageRows returns one (website, URL) row per page.
func (c *Collection) PageRows() []model.PageRow {
	rows := make([]model.PageRow, 0, len(c.Pages))
	for _, p := range c.Pages {
		rows = append(rows, model.PageRow{Website: c.Website.Name, URL: p.URL})
	}
	return rows
}

// ScoreRows returns one score row per page.
func (c *Collection) ScoreRows() []model.ScoreRow {
	rows := make([]model.ScoreRow, 0, len(c.Pages))
	for _, p := range c.Pages {
		rows = append(rows, model.NewScoreRow(c.Website.Name, p))
	}
	return rows
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each one receiving the collection filled
// by the previous steps.
type Step interface {
	// Do executes the step. Any error aborts the pipeline.
	Do(ctx context.Context, c *Collection) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes steps in order for a single website.
type Pipeline struct {
	steps  []Step
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline running steps in the given order.
func New(steps []Step, opts ...Option) *Pipeline {
	p := &Pipeline{steps: steps}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Execute runs all steps in sequence and stops at the first error.
// Cancellation is checked before each step; steps handle their own
// cancellation while running.
func (p *Pipeline) Execute(ctx context.Context, c *Collection) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"website", c.Website.Name,
				"reason", err,
			)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"website", c.Website.Name,
		)

		if err := step.Do(ctx, c); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"website", c.Website.Name,
				"error", err,
			)
			return fmt.Errorf("website %s: %s: %w", c.Website.Name, step.Name(), err)
		}
		c.Steps = append(c.Steps, step.Name())
	}
	return nil
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
