// Package config provides configuration loading and validation for zentro-oracle.
package config

import "errors"

var (
	// ErrAccountRequired indicates that feed.account is missing.
	ErrAccountRequired = errors.New("feed.account must be specified")
	// ErrInvalidAggregateMode indicates that the aggregation mode is invalid.
	ErrInvalidAggregateMode = errors.New("invalid aggregate_mode")
	// ErrInvalidInterval indicates a non-positive poll interval or max age.
	ErrInvalidInterval = errors.New("interval must be positive")
	// ErrInvalidLedger indicates that the ledger kind is unknown.
	ErrInvalidLedger = errors.New("invalid ledger kind")
	// ErrEndpointRequired indicates that the solana ledger has no endpoint.
	ErrEndpointRequired = errors.New("ledger.endpoint must be specified")
	// ErrInvalidCommitment indicates that the commitment level is unknown.
	ErrInvalidCommitment = errors.New("invalid ledger commitment")
	// ErrInvalidFee indicates a pricing rate outside [0,1).
	ErrInvalidFee = errors.New("invalid pricing config")
	// ErrRedisAddrRequired indicates that the cache is enabled without a Redis address.
	ErrRedisAddrRequired = errors.New("cache.redis.addr must be specified")
	// ErrInvalidRateLimit indicates a negative rate limit.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
	// ErrInvalidStreamSource indicates an unknown or unusable WebSocket quote source.
	ErrInvalidStreamSource = errors.New("invalid websocket source")
	// ErrInvalidLogLevel indicates that the log level is invalid.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat indicates that the log format is invalid.
	ErrInvalidLogFormat = errors.New("invalid log format")
)
