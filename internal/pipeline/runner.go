// Package pipeline runs ingestion and scoring on fixed intervals for
// deployments without an external scheduler.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aywang31/marketpulse/internal/ingest"
	"github.com/aywang31/marketpulse/internal/scoring"
)

// Config holds the loop intervals.
type Config struct {
	IngestInterval time.Duration
	ScoreInterval  time.Duration
	ActiveOnly     bool
}

// Runner drives the ingestion and scoring passes on independent tickers.
type Runner struct {
	ingestor     *ingest.Ingestor
	orchestrator *scoring.Orchestrator
	cfg          Config
	logger       *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(ingestor *ingest.Ingestor, orchestrator *scoring.Orchestrator, cfg Config, logger *slog.Logger) *Runner {
	return &Runner{
		ingestor:     ingestor,
		orchestrator: orchestrator,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "pipeline")),
	}
}

// Run blocks until ctx is cancelled. Both loops fire once immediately so a
// fresh deployment has data before the first tick.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.loop(ctx, r.cfg.IngestInterval, r.runIngest)
	})
	g.Go(func() error {
		return r.loop(ctx, r.cfg.ScoreInterval, r.runScore)
	})

	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (r *Runner) loop(ctx context.Context, interval time.Duration, pass func(context.Context)) error {
	pass(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pass(ctx)
		}
	}
}

func (r *Runner) runIngest(ctx context.Context) {
	res := r.ingestor.IngestAll(ctx)
	if !res.Success {
		r.logger.WarnContext(ctx, "ingestion pass produced no records",
			slog.Int("errors", len(res.Errors)),
		)
	}
}

func (r *Runner) runScore(ctx context.Context) {
	if _, err := r.orchestrator.ScoreAll(ctx, r.cfg.ActiveOnly); err != nil {
		r.logger.ErrorContext(ctx, "scoring pass failed",
			slog.String("error", err.Error()),
		)
	}
}
