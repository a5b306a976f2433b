// Package ledger provides read-only access to raw oracle account data.
package ledger

import "context"

// AccountReader returns the raw data bytes of a ledger account.
// Implementations return ErrAccountNotFound when the account does not exist.
// No consistency is assumed between two calls.
type AccountReader interface {
	GetAccountInfo(ctx context.Context, address string) ([]byte, error)
}

// Options configures a reader created through the registry.
type Options struct {
	Endpoint   string
	Commitment string
	// Accounts seeds the memory reader: address -> hex encoded account data.
	Accounts map[string]string
}

// Factory creates an AccountReader from options.
type Factory func(opts Options) (AccountReader, error)
