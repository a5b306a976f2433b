package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/StrathCole/zentro-oracle/pkg/amm"
	"github.com/StrathCole/zentro-oracle/pkg/stats"
)

// Config is the root configuration structure
type Config struct {
	Feed    FeedConfig    `yaml:"feed"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Pricing PricingConfig `yaml:"pricing"`
	Server  ServerConfig  `yaml:"server"`
	Cache   CacheConfig   `yaml:"cache"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// FeedConfig configures the oracle feed
type FeedConfig struct {
	Account        string   `yaml:"account"`         // Oracle account the feed polls
	Symbol         string   `yaml:"symbol"`          // Symbol tag for aggregated updates
	SourceAccounts []string `yaml:"source_accounts"` // Extra accounts for on-demand aggregation
	PollInterval   Duration `yaml:"poll_interval"`
	MaxAge         Duration `yaml:"max_age"`
	AggregateMode  string   `yaml:"aggregate_mode"` // average or median
}

// LedgerConfig selects and configures the account reader
type LedgerConfig struct {
	Kind       string            `yaml:"kind"`     // solana or memory
	Endpoint   string            `yaml:"endpoint"` // JSON-RPC endpoint (solana)
	Commitment string            `yaml:"commitment"`
	Accounts   map[string]string `yaml:"accounts"` // hex account data (memory)
}

// PricingConfig configures the AMM pricing engine. Keys missing from the
// YAML keep their defaults; explicit zeros are kept.
type PricingConfig struct {
	BaseFee      float64           `yaml:"base_fee"`
	LiquidityFee float64           `yaml:"liquidity_fee"`
	ProtocolFee  float64           `yaml:"protocol_fee"`
	MaxSlippage  float64           `yaml:"max_slippage"`
	RiskFreeRate float64           `yaml:"risk_free_rate"`
	Market       amm.PricingParams `yaml:"market"` // basis-point market pricing
}

func defaultPricingConfig() PricingConfig {
	d := amm.DefaultPricingConfig
	return PricingConfig{
		BaseFee:      d.BaseFee,
		LiquidityFee: d.LiquidityFee,
		ProtocolFee:  d.ProtocolFee,
		MaxSlippage:  d.MaxSlippage,
		RiskFreeRate: stats.DefaultRiskFreeRate,
		Market:       amm.DefaultPricingParams,
	}
}

// AMM returns the engine's view of the pricing config.
func (p PricingConfig) AMM() amm.PricingConfig {
	return amm.PricingConfig{
		BaseFee:      p.BaseFee,
		LiquidityFee: p.LiquidityFee,
		ProtocolFee:  p.ProtocolFee,
		MaxSlippage:  p.MaxSlippage,
	}
}

// ServerConfig configures the API servers
type ServerConfig struct {
	HTTP             HTTPConfig      `yaml:"http"`
	WebSocket        WSConfig        `yaml:"websocket"`
	RateLimit        RateLimitConfig `yaml:"rate_limit"`
	CORS             CORSConfig      `yaml:"cors"`
	MaxHistoryPoints int             `yaml:"max_history_points"`
}

// HTTPConfig configures the HTTP server
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// WSConfig configures the WebSocket server
type WSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Source  string `yaml:"source"` // feed or cache (relay quotes from Redis)
}

// RateLimitConfig configures per-client HTTP rate limiting
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CORSConfig configures allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// CacheConfig configures the Redis latest-quote cache
type CacheConfig struct {
	Enabled   bool        `yaml:"enabled"`
	Redis     RedisConfig `yaml:"redis"`
	KeyPrefix string      `yaml:"key_prefix"`
	TTL       Duration    `yaml:"ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MetricsConfig configures Prometheus metrics
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Path    string `yaml:"path"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"` // stdout, stderr or a file path
}

// Duration is a wrapper around time.Duration for YAML parsing
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string like \"30s\"", value.Line)
	}
	td, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(td)
	return nil
}

// ToDuration converts Duration to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
