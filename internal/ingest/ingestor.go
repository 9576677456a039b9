// Package ingest runs the source adapters and persists their output: one
// market upsert plus one appended snapshot per normalized record.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/source"
)

// RawArchiver writes a fetched batch to cold storage for audit. Archival is
// best-effort: a failed write is logged, never an ingestion error.
type RawArchiver interface {
	ArchiveBatch(ctx context.Context, src domain.Source, ts time.Time, batch []domain.NormalizedMarket) error
}

// Result is the outcome of one ingestion run. Success is true when at least
// one record was processed; a run where every provider returned an empty (but
// healthy) page therefore counts as a failure, matching the scheduler-facing
// contract.
type Result struct {
	Success        bool
	TotalProcessed int
	BySource       map[domain.Source]int
	Errors         []domain.PipelineError
}

// Ingestor coordinates all source adapters. Adapters run concurrently with
// each other; within one source, records are processed sequentially so a bad
// record is isolated without any cross-record state.
type Ingestor struct {
	markets   domain.MarketStore
	snapshots domain.SnapshotStore
	adapters  []source.Adapter
	archiver  RawArchiver // optional
	limit     int
	logger    *slog.Logger

	now func() time.Time
}

// New creates an Ingestor. limit caps the number of normalized records per
// source and run. archiver may be nil.
func New(
	markets domain.MarketStore,
	snapshots domain.SnapshotStore,
	adapters []source.Adapter,
	archiver RawArchiver,
	limit int,
	logger *slog.Logger,
) *Ingestor {
	return &Ingestor{
		markets:   markets,
		snapshots: snapshots,
		adapters:  adapters,
		archiver:  archiver,
		limit:     limit,
		logger:    logger.With(slog.String("component", "ingestor")),
		now:       time.Now,
	}
}

// IngestAll runs every configured adapter concurrently and merges the
// per-source outcomes. One source's total failure never blocks another: each
// fetch error is recorded against its source only.
func (ing *Ingestor) IngestAll(ctx context.Context) Result {
	outcomes := make([]sourceOutcome, len(ing.adapters))

	g, ctx := errgroup.WithContext(ctx)
	for i, adapter := range ing.adapters {
		g.Go(func() error {
			outcomes[i] = ing.ingestSource(ctx, adapter)
			return nil
		})
	}
	_ = g.Wait()

	return ing.merge(outcomes)
}

// IngestSource runs a single provider's adapter.
func (ing *Ingestor) IngestSource(ctx context.Context, src domain.Source) Result {
	for _, adapter := range ing.adapters {
		if adapter.Source() == src {
			return ing.merge([]sourceOutcome{ing.ingestSource(ctx, adapter)})
		}
	}
	return Result{
		BySource: zeroCounts(),
		Errors: []domain.PipelineError{{
			Scope:   domain.ScopeSourceFetch,
			Key:     string(src),
			Message: domain.ErrUnknownSource.Error(),
		}},
	}
}

type sourceOutcome struct {
	src   domain.Source
	count int
	errs  []domain.PipelineError
}

// ingestSource fetches one provider and persists its batch sequentially. All
// snapshots from the batch share a single ingestion timestamp, giving the run
// a consistent as-of instant regardless of wall-clock skew between writes.
func (ing *Ingestor) ingestSource(ctx context.Context, adapter source.Adapter) sourceOutcome {
	src := adapter.Source()
	out := sourceOutcome{src: src}

	markets, err := adapter.Fetch(ctx, ing.limit)
	if err != nil {
		out.errs = append(out.errs, domain.PipelineError{
			Scope:   domain.ScopeSourceFetch,
			Key:     string(src),
			Message: err.Error(),
		})
		ing.logger.ErrorContext(ctx, "source fetch failed",
			slog.String("source", string(src)),
			slog.String("error", err.Error()),
		)
		return out
	}

	ts := ing.now().UTC()

	if ing.archiver != nil && len(markets) > 0 {
		if err := ing.archiver.ArchiveBatch(ctx, src, ts, markets); err != nil {
			ing.logger.WarnContext(ctx, "raw batch archive failed",
				slog.String("source", string(src)),
				slog.String("error", err.Error()),
			)
		}
	}

	for _, nm := range markets {
		if err := ing.persistRecord(ctx, nm, ts); err != nil {
			out.errs = append(out.errs, domain.PipelineError{
				Scope:   domain.ScopeRecordPersist,
				Key:     string(src) + " " + nm.ExternalID,
				Message: err.Error(),
			})
			continue
		}
		out.count++
	}

	ing.logger.InfoContext(ctx, "source ingested",
		slog.String("source", string(src)),
		slog.Int("processed", out.count),
		slog.Int("errors", len(out.errs)),
	)
	return out
}

// persistRecord upserts the market identity and appends one snapshot. The
// upsert is the only write that can race across overlapping runs; it is a
// single conditional statement at the storage layer.
func (ing *Ingestor) persistRecord(ctx context.Context, nm domain.NormalizedMarket, ts time.Time) error {
	status := nm.Status
	if status == "" {
		status = "active"
	}

	market, err := ing.markets.Upsert(ctx, domain.Market{
		Source:     nm.Source,
		ExternalID: nm.ExternalID,
		Title:      nm.Title,
		URL:        nm.URL,
		Category:   nm.Category,
		Status:     status,
	})
	if err != nil {
		return err
	}

	return ing.snapshots.Append(ctx, domain.MarketSnapshot{
		MarketID:    market.ID,
		TS:          ts,
		Probability: nm.Probability,
		PriceYes:    nm.PriceYes,
		PriceNo:     nm.PriceNo,
		Volume:      nm.Volume,
		Liquidity:   nm.Liquidity,
		Spread:      nm.Spread,
		Raw:         nm.Raw,
	})
}

func (ing *Ingestor) merge(outcomes []sourceOutcome) Result {
	res := Result{BySource: zeroCounts()}
	for _, o := range outcomes {
		res.BySource[o.src] = o.count
		res.TotalProcessed += o.count
		res.Errors = append(res.Errors, o.errs...)
	}
	res.Success = res.TotalProcessed > 0
	return res
}

// zeroCounts pre-fills every known source so result bodies always report both
// providers, even ones that contributed nothing.
func zeroCounts() map[domain.Source]int {
	counts := make(map[domain.Source]int, len(domain.Sources))
	for _, s := range domain.Sources {
		counts[s] = 0
	}
	return counts
}
