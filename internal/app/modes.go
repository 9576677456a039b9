package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aywang31/marketpulse/internal/pipeline"
	"github.com/aywang31/marketpulse/internal/server"
	"github.com/aywang31/marketpulse/internal/server/handler"
)

// Version is stamped into health responses. Overridable at build time via
// -ldflags "-X .../internal/app.Version=v1.2.3".
var Version = "dev"

// ServeMode runs the HTTP API server until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	srv := a.buildServer(deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// PipelineMode runs the self-scheduled ingestion and scoring loops, with the
// HTTP API alongside when enabled.
func (a *App) PipelineMode(ctx context.Context, deps *Dependencies) error {
	runner := pipeline.NewRunner(deps.Ingestor, deps.Orchestrator, pipeline.Config{
		IngestInterval: a.cfg.Ingest.Interval.Duration,
		ScoreInterval:  a.cfg.Scoring.Interval.Duration,
		ActiveOnly:     a.cfg.Scoring.ActiveOnly,
	}, a.logger)

	if a.cfg.Server.Enabled {
		srv := a.buildServer(deps)
		go func() {
			if err := srv.Start(); err != nil {
				a.logger.ErrorContext(ctx, "server stopped", slog.String("error", err.Error()))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	return runner.Run(ctx)
}

// IngestMode performs one ingestion run and exits.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	res := deps.Ingestor.IngestAll(ctx)
	a.logger.InfoContext(ctx, "ingestion run finished",
		slog.Bool("success", res.Success),
		slog.Int("total_processed", res.TotalProcessed),
		slog.Int("errors", len(res.Errors)),
	)
	if !res.Success {
		return fmt.Errorf("app: ingestion processed no records (%d errors)", len(res.Errors))
	}
	return nil
}

// ScoreMode performs one scoring pass and exits.
func (a *App) ScoreMode(ctx context.Context, deps *Dependencies) error {
	res, err := deps.Orchestrator.ScoreAll(ctx, a.cfg.Scoring.ActiveOnly)
	if err != nil {
		return fmt.Errorf("app: scoring pass: %w", err)
	}
	a.logger.InfoContext(ctx, "scoring run finished",
		slog.Bool("success", res.Success),
		slog.Int("markets_scored", res.MarketsScored),
		slog.Int("errors", len(res.Errors)),
	)
	return nil
}

func (a *App) buildServer(deps *Dependencies) *server.Server {
	return server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			CronSecret:  a.cfg.Server.CronSecret,
		},
		server.Handlers{
			Health:  handler.NewHealthHandler(deps.MarketStore, Version),
			Ingest:  handler.NewIngestHandler(deps.Ingestor),
			Score:   handler.NewScoreHandler(deps.Orchestrator, a.cfg.Scoring.ActiveOnly),
			Signals: handler.NewSignalHandler(deps.SignalStore),
		},
		a.logger,
	)
}
