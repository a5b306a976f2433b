package feed

import "errors"

var (
	// ErrOracleAccountNotFound indicates that the bound account does not exist.
	ErrOracleAccountNotFound = errors.New("oracle account not found")
	// ErrAlreadyInitialized indicates that Initialize was called twice.
	ErrAlreadyInitialized = errors.New("feed already initialized")
	// ErrFeedDestroyed indicates that the feed has been destroyed.
	ErrFeedDestroyed = errors.New("feed destroyed")
	// ErrTickFailed wraps the read or decode failure of a polling tick.
	ErrTickFailed = errors.New("feed tick failed")
	// ErrAddressRequired indicates that no oracle account address was configured.
	ErrAddressRequired = errors.New("oracle account address is required")
	// ErrReaderRequired indicates that no price source reader was configured.
	ErrReaderRequired = errors.New("price source reader is required")
)
