package folio

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config carries the process-level settings. Values come from the
// environment, optionally seeded from a .env file, and every field has a
// working default so a bare start just works.
type Config struct {
	// DataDir is the root of the JSON document store.
	DataDir string
	// CacheTTL bounds how long storage reads may serve from memory.
	CacheTTL time.Duration
	// LogLevel is a zerolog level name: debug, info, warn, error.
	LogLevel string

	QuoteURL string // realtime quote endpoint, empty for the default
	KlineURL string // daily kline endpoint, empty for the default
	FxURL    string // exchange rate endpoint, empty for the default

	// RatesCron and ReconcileCron schedule the daemon's background jobs.
	RatesCron     string
	ReconcileCron string
}

// LoadConfig reads the environment, after loading a .env file when one
// exists in the working directory.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("could not read .env file")
	}

	cfg := Config{
		DataDir:       envOr("FOLIO_DATA_DIR", "data"),
		CacheTTL:      5 * time.Minute,
		LogLevel:      envOr("FOLIO_LOG_LEVEL", "info"),
		QuoteURL:      os.Getenv("FOLIO_QUOTE_URL"),
		KlineURL:      os.Getenv("FOLIO_KLINE_URL"),
		FxURL:         os.Getenv("FOLIO_FX_URL"),
		RatesCron:     envOr("FOLIO_RATES_CRON", "0 1 * * *"),
		ReconcileCron: envOr("FOLIO_RECONCILE_CRON", "30 1 * * *"),
	}
	if raw := os.Getenv("FOLIO_CACHE_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Warn().Str("value", raw).Msg("invalid FOLIO_CACHE_TTL, keeping default")
		} else {
			cfg.CacheTTL = ttl
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
