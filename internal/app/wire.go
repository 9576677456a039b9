package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/aywang31/marketpulse/internal/blob/s3"
	"github.com/aywang31/marketpulse/internal/cache/redis"
	"github.com/aywang31/marketpulse/internal/config"
	"github.com/aywang31/marketpulse/internal/domain"
	"github.com/aywang31/marketpulse/internal/features"
	"github.com/aywang31/marketpulse/internal/ingest"
	"github.com/aywang31/marketpulse/internal/notify"
	"github.com/aywang31/marketpulse/internal/platform/kalshi"
	"github.com/aywang31/marketpulse/internal/platform/polymarket"
	"github.com/aywang31/marketpulse/internal/scoring"
	"github.com/aywang31/marketpulse/internal/source"
	"github.com/aywang31/marketpulse/internal/store/memory"
	"github.com/aywang31/marketpulse/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	MarketStore   domain.MarketStore
	SnapshotStore domain.SnapshotStore
	SignalStore   domain.SignalStore

	Ingestor     *ingest.Ingestor
	Engine       *features.Engine
	Orchestrator *scoring.Orchestrator
	Notifier     *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Storage ---
	switch strings.ToLower(cfg.Storage.Backend) {
	case "postgres":
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.SnapshotStore = postgres.NewSnapshotStore(pool)
		deps.SignalStore = postgres.NewSignalStore(pool)
	case "memory":
		deps.MarketStore = memory.NewMarketStore()
		deps.SnapshotStore = memory.NewSnapshotStore()
		deps.SignalStore = memory.NewSignalStore()
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown storage backend %q", cfg.Storage.Backend)
	}

	// --- Redis cooldown cache (optional) ---
	var marker scoring.CooldownMarker
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		marker = redis.NewCooldownCache(redisClient)
	}

	// --- S3 raw archive (optional) ---
	var archiver ingest.RawArchiver
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKey,
			SecretAccessKey: cfg.S3.SecretKey,
			UsePathStyle:    cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		archiver = s3blob.NewArchiver(s3Client, cfg.S3.Prefix)
	}

	// --- Source adapters ---
	adapters := []source.Adapter{
		source.NewPolymarketAdapter(polymarket.NewGammaClient(cfg.Polymarket.GammaHost), cfg.Polymarket.WebHost),
		source.NewKalshiAdapter(kalshi.NewClient(cfg.Kalshi.BaseURL), cfg.Kalshi.WebHost),
	}

	deps.Ingestor = ingest.New(
		deps.MarketStore,
		deps.SnapshotStore,
		adapters,
		archiver,
		cfg.Ingest.Limit,
		logger,
	)

	deps.Engine = features.New(deps.SnapshotStore, scoring.NewHeuristic())

	// --- Notifications (optional) ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.New(logger, senders...)
	}

	opts := []scoring.Option{
		scoring.WithCooldown(cfg.Scoring.Cooldown.Duration),
	}
	if marker != nil {
		opts = append(opts, scoring.WithCooldownMarker(marker))
	}
	if deps.Notifier != nil {
		opts = append(opts, scoring.WithAlerter(deps.Notifier, cfg.Scoring.AlertThreshold))
	}

	deps.Orchestrator = scoring.NewOrchestrator(
		deps.MarketStore,
		deps.SignalStore,
		deps.Engine,
		logger,
		opts...,
	)

	return deps, cleanup, nil
}
