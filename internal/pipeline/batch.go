package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/vitals/internal/model"
)

// BatchProcessor runs one pipeline per website with bounded concurrency.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each website.
	pipelineFactory func() *Pipeline

	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of websites processed at once.
// The default of 1 processes websites strictly one after another.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     1,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch collects every website and returns the collections in the
// order of websites. The first error cancels the remaining work and is
// returned with no collections.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, websites []model.ConfiguredWebsite) ([]*Collection, error) {
	bp.logger.Info("starting collection",
		"websites", len(websites),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Pre-allocated so results keep website order whatever the completion order.
	results := make([]*Collection, len(websites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, website := range websites {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			bp.logger.Info("collecting website",
				"website", website.Name,
				"index", i+1,
				"total", len(websites),
			)

			c := NewCollection(website)
			if err := bp.pipelineFactory().Execute(ctx, c); err != nil {
				return err
			}
			results[i] = c
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	bp.logger.Info("collection complete",
		"websites", len(websites),
		"elapsed", time.Since(startTime),
	)
	return results, nil
}
