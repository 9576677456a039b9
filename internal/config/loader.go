package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MARKETPULSE_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MARKETPULSE_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Storage ──
	setStr(&cfg.Storage.Backend, "MARKETPULSE_STORAGE_BACKEND")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "MARKETPULSE_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // deploy-platform alias
	setStr(&cfg.Postgres.Host, "MARKETPULSE_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MARKETPULSE_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MARKETPULSE_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MARKETPULSE_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MARKETPULSE_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MARKETPULSE_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MARKETPULSE_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MARKETPULSE_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MARKETPULSE_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MARKETPULSE_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MARKETPULSE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MARKETPULSE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MARKETPULSE_REDIS_DB")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MARKETPULSE_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MARKETPULSE_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MARKETPULSE_S3_REGION")
	setStr(&cfg.S3.Bucket, "MARKETPULSE_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MARKETPULSE_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MARKETPULSE_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "MARKETPULSE_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.Prefix, "MARKETPULSE_S3_PREFIX")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "MARKETPULSE_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WebHost, "MARKETPULSE_POLYMARKET_WEB_HOST")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "MARKETPULSE_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.WebHost, "MARKETPULSE_KALSHI_WEB_HOST")

	// ── Ingest ──
	setInt(&cfg.Ingest.Limit, "MARKETPULSE_INGEST_LIMIT")
	setDuration(&cfg.Ingest.Interval, "MARKETPULSE_INGEST_INTERVAL")

	// ── Scoring ──
	setDuration(&cfg.Scoring.Cooldown, "MARKETPULSE_SCORING_COOLDOWN")
	setDuration(&cfg.Scoring.Interval, "MARKETPULSE_SCORING_INTERVAL")
	setBool(&cfg.Scoring.ActiveOnly, "MARKETPULSE_SCORING_ACTIVE_ONLY")
	setInt(&cfg.Scoring.AlertThreshold, "MARKETPULSE_SCORING_ALERT_THRESHOLD")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "MARKETPULSE_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MARKETPULSE_SERVER_PORT")
	setStr(&cfg.Server.CronSecret, "MARKETPULSE_SERVER_CRON_SECRET")
	setStr(&cfg.Server.CronSecret, "CRON_SECRET") // deploy-platform alias
	setStringSlice(&cfg.Server.CORSOrigins, "MARKETPULSE_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MARKETPULSE_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MARKETPULSE_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MARKETPULSE_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.Mode, "MARKETPULSE_MODE")
	setStr(&cfg.LogLevel, "MARKETPULSE_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
