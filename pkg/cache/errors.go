package cache

import "errors"

var (
	// ErrCacheMiss indicates that no quote is cached for the account.
	ErrCacheMiss = errors.New("no cached quote")
	// ErrClientRequired indicates that no Redis client was supplied.
	ErrClientRequired = errors.New("redis client is required")
)
