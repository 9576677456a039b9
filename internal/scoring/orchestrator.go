package scoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/aywang31/marketpulse/internal/domain"
)

// DefaultCooldown is the minimum interval between successive signals for the
// same market.
const DefaultCooldown = 10 * time.Minute

// FeatureComputer produces engineered features plus the derived score for one
// market. Satisfied by *features.Engine.
type FeatureComputer interface {
	Compute(ctx context.Context, marketID string) (domain.FeatureResult, error)
}

// CooldownMarker is an optional fast path in front of the signal store's
// cooldown query, typically backed by a Redis key with a TTL. Marker errors
// are never fatal; the store remains the source of truth.
type CooldownMarker interface {
	Seen(ctx context.Context, marketID string) (bool, error)
	Mark(ctx context.Context, marketID string, ttl time.Duration) error
}

// Alerter delivers a notification for a freshly persisted signal.
type Alerter interface {
	AlertSignal(ctx context.Context, m domain.Market, sig domain.MarketSignal) error
}

// Result is the outcome of one scoring pass. Success mirrors the ingestion
// convention: true only when at least one market was scored.
type Result struct {
	Success       bool
	MarketsScored int
	Errors        []domain.PipelineError
}

// Orchestrator selects markets, applies the cooldown gate, and runs feature
// engineering and scoring for each eligible market. Markets cycle between
// eligible and cooling down forever; there is no terminal state.
type Orchestrator struct {
	markets  domain.MarketStore
	signals  domain.SignalStore
	engine   FeatureComputer
	cooldown time.Duration

	marker         CooldownMarker // optional
	alerter        Alerter        // optional
	alertThreshold int

	logger *slog.Logger
	now    func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithCooldown overrides the default 10-minute cooldown.
func WithCooldown(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.cooldown = d
		}
	}
}

// WithCooldownMarker installs the optional cache-backed cooldown fast path.
func WithCooldownMarker(m CooldownMarker) Option {
	return func(o *Orchestrator) { o.marker = m }
}

// WithAlerter installs a notifier invoked for signals whose score is at or
// above threshold (and whose confidence is better than LOW).
func WithAlerter(a Alerter, threshold int) Option {
	return func(o *Orchestrator) {
		o.alerter = a
		o.alertThreshold = threshold
	}
}

// NewOrchestrator creates a scoring Orchestrator.
func NewOrchestrator(
	markets domain.MarketStore,
	signals domain.SignalStore,
	engine FeatureComputer,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		markets:  markets,
		signals:  signals,
		engine:   engine,
		cooldown: DefaultCooldown,
		logger:   logger.With(slog.String("component", "scoring")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ScoreAll scores every market (status "active" only when activeOnly),
// skipping markets with a signal inside the cooldown window. Per-market
// failures are recorded and the loop continues. The returned error is non-nil
// only when the market listing itself failed.
func (o *Orchestrator) ScoreAll(ctx context.Context, activeOnly bool) (Result, error) {
	markets, err := o.markets.List(ctx, activeOnly)
	if err != nil {
		return Result{}, err
	}

	res := Result{}
	ts := o.now().UTC()
	cutoff := ts.Add(-o.cooldown)

	for _, m := range markets {
		skip, err := o.inCooldown(ctx, m.ID, cutoff)
		if err != nil {
			res.Errors = append(res.Errors, scoringError(m.ID, err))
			continue
		}
		if skip {
			continue
		}

		fr, err := o.engine.Compute(ctx, m.ID)
		if err != nil {
			res.Errors = append(res.Errors, scoringError(m.ID, err))
			continue
		}

		sig := domain.MarketSignal{
			MarketID:    m.ID,
			TS:          ts,
			Score:       fr.Score,
			Confidence:  fr.Confidence,
			Explanation: fr.Explanation,
			Features:    fr.Features,
		}
		if err := o.signals.Insert(ctx, sig); err != nil {
			res.Errors = append(res.Errors, scoringError(m.ID, err))
			continue
		}
		res.MarketsScored++

		if o.marker != nil {
			if err := o.marker.Mark(ctx, m.ID, o.cooldown); err != nil {
				o.logger.WarnContext(ctx, "cooldown mark failed",
					slog.String("market_id", m.ID),
					slog.String("error", err.Error()),
				)
			}
		}

		o.maybeAlert(ctx, m, sig)
	}

	res.Success = res.MarketsScored > 0
	o.logger.InfoContext(ctx, "scoring pass complete",
		slog.Int("markets_scored", res.MarketsScored),
		slog.Int("errors", len(res.Errors)),
		slog.Bool("active_only", activeOnly),
	)
	return res, nil
}

// inCooldown checks the cache marker first and falls back to the signal
// store. A marker error downgrades to the store query.
func (o *Orchestrator) inCooldown(ctx context.Context, marketID string, cutoff time.Time) (bool, error) {
	if o.marker != nil {
		seen, err := o.marker.Seen(ctx, marketID)
		if err == nil && seen {
			return true, nil
		}
		if err != nil {
			o.logger.WarnContext(ctx, "cooldown marker check failed",
				slog.String("market_id", marketID),
				slog.String("error", err.Error()),
			)
		}
	}
	return o.signals.ExistsSince(ctx, marketID, cutoff)
}

func (o *Orchestrator) maybeAlert(ctx context.Context, m domain.Market, sig domain.MarketSignal) {
	if o.alerter == nil || sig.Score < o.alertThreshold || sig.Confidence == domain.ConfidenceLow {
		return
	}
	if err := o.alerter.AlertSignal(ctx, m, sig); err != nil {
		o.logger.WarnContext(ctx, "signal alert failed",
			slog.String("market_id", m.ID),
			slog.String("error", err.Error()),
		)
	}
}

func scoringError(marketID string, err error) domain.PipelineError {
	return domain.PipelineError{
		Scope:   domain.ScopeScoring,
		Key:     marketID,
		Message: err.Error(),
	}
}
