package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/StrathCole/zentro-oracle/pkg/oracle/aggregator"
	"github.com/StrathCole/zentro-oracle/pkg/oracle/ledger"
)

// Validate checks configuration for errors
func Validate(cfg *Config) error {
	if err := validateFeedConfig(&cfg.Feed); err != nil {
		return fmt.Errorf("feed config: %w", err)
	}
	if err := validateLedgerConfig(&cfg.Ledger); err != nil {
		return fmt.Errorf("ledger config: %w", err)
	}
	if err := cfg.Pricing.AMM().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFee, err)
	}
	if err := cfg.Pricing.Market.Validate(); err != nil {
		return fmt.Errorf("pricing config: %w", err)
	}
	if err := validateServerConfig(&cfg.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if cfg.Cache.Enabled && cfg.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache config: %w", ErrRedisAddrRequired)
	}
	if cfg.Server.WebSocket.Source == StreamSourceCache && !cfg.Cache.Enabled {
		return fmt.Errorf("server config: %w: websocket source cache needs cache.enabled", ErrInvalidStreamSource)
	}
	if err := validateLoggingConfig(&cfg.Logging); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func validateFeedConfig(cfg *FeedConfig) error {
	if cfg.Account == "" {
		return ErrAccountRequired
	}
	if cfg.PollInterval.ToDuration() <= 0 {
		return fmt.Errorf("%w: poll_interval %s", ErrInvalidInterval, cfg.PollInterval.ToDuration())
	}
	if cfg.MaxAge.ToDuration() <= 0 {
		return fmt.Errorf("%w: max_age %s", ErrInvalidInterval, cfg.MaxAge.ToDuration())
	}

	mode := strings.ToLower(cfg.AggregateMode)
	if mode != aggregator.ModeAverage && mode != aggregator.ModeMedian {
		return fmt.Errorf("%w: %s (must be 'average' or 'median')", ErrInvalidAggregateMode, cfg.AggregateMode)
	}
	return nil
}

func validateLedgerConfig(cfg *LedgerConfig) error {
	kinds := ledger.List()
	if !slices.Contains(kinds, cfg.Kind) {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLedger, cfg.Kind, strings.Join(kinds, ", "))
	}
	if cfg.Kind != ledger.KindSolana {
		return nil
	}

	if cfg.Endpoint == "" {
		return ErrEndpointRequired
	}
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("%w: %s (must be 'processed', 'confirmed', or 'finalized')", ErrInvalidCommitment, cfg.Commitment)
	}
	return nil
}

func validateServerConfig(cfg *ServerConfig) error {
	switch cfg.WebSocket.Source {
	case StreamSourceFeed, StreamSourceCache:
	default:
		return fmt.Errorf("%w: %s (must be '%s' or '%s')", ErrInvalidStreamSource, cfg.WebSocket.Source, StreamSourceFeed, StreamSourceCache)
	}
	if cfg.RateLimit.RequestsPerSecond < 0 || cfg.RateLimit.Burst < 0 {
		return fmt.Errorf("%w: rate %v burst %d", ErrInvalidRateLimit, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	return nil
}

func validateLoggingConfig(cfg *LoggingConfig) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLevels, strings.ToLower(cfg.Level)) {
		return fmt.Errorf("%w: %s (must be one of: %s)", ErrInvalidLogLevel, cfg.Level, strings.Join(validLevels, ", "))
	}

	format := strings.ToLower(cfg.Format)
	if format != "json" && format != "text" {
		return fmt.Errorf("%w: %s (must be 'json' or 'text')", ErrInvalidLogFormat, cfg.Format)
	}
	return nil
}
