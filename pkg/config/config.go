package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/StrathCole/zentro-oracle/pkg/cache"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/aggregator"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/feed"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/ledger"
)

// Load loads configuration from a YAML file after loading environment files.
// With no envFiles, a .env in the working directory is loaded if present.
// ${VAR} references in the YAML are expanded from the environment.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := loadEnv(envFiles); err != nil {
		return nil, err
	}

	// Validate and sanitize path
	cleanPath := filepath.Clean(path)
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(absPath) // #nosec G304 -- Path sanitized with filepath.Clean and filepath.Abs
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	// Pricing is pre-filled so that only the keys present override it
	cfg := Config{Pricing: defaultPricingConfig()}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func loadEnv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env files: %w", err)
	}
	return nil
}

// WebSocket quote sources.
const (
	StreamSourceFeed  = "feed"
	StreamSourceCache = "cache"
)

// applyDefaults sets default values for optional fields.
func applyDefaults(cfg *Config) {
	// Feed defaults
	if cfg.Feed.PollInterval == 0 {
		cfg.Feed.PollInterval = Duration(feed.DefaultPollInterval)
	}
	if cfg.Feed.MaxAge == 0 {
		cfg.Feed.MaxAge = Duration(oracle.DefaultMaxAge)
	}
	if cfg.Feed.AggregateMode == "" {
		cfg.Feed.AggregateMode = aggregator.ModeAverage
	}

	// Ledger defaults
	if cfg.Ledger.Kind == "" {
		cfg.Ledger.Kind = ledger.KindSolana
	}
	if cfg.Ledger.Commitment == "" {
		cfg.Ledger.Commitment = "confirmed"
	}

	// Server defaults
	if cfg.Server.HTTP.Addr == "" {
		cfg.Server.HTTP.Addr = ":8080"
	}
	if cfg.Server.WebSocket.Addr == "" {
		cfg.Server.WebSocket.Addr = ":8081"
	}
	if cfg.Server.WebSocket.Source == "" {
		cfg.Server.WebSocket.Source = StreamSourceFeed
	}
	if cfg.Server.RateLimit.RequestsPerSecond == 0 {
		cfg.Server.RateLimit.RequestsPerSecond = 20
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 40
	}
	if cfg.Server.MaxHistoryPoints == 0 {
		cfg.Server.MaxHistoryPoints = 10_000
	}

	// Cache defaults
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = cache.DefaultKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = Duration(cache.DefaultTTL)
	}

	// Metrics defaults
	if cfg.Metrics.Enabled && cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9091"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// LedgerOptions converts the ledger section into reader options.
func (c *Config) LedgerOptions() ledger.Options {
	return ledger.Options{
		Endpoint:   c.Ledger.Endpoint,
		Commitment: c.Ledger.Commitment,
		Accounts:   c.Ledger.Accounts,
	}
}
