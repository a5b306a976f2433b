package ledger

import "errors"

var (
	// ErrAccountNotFound indicates that the account does not exist on the ledger.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidAddress indicates that the account address could not be parsed.
	ErrInvalidAddress = errors.New("invalid account address")
	// ErrReadFailed indicates that the ledger could not be queried.
	ErrReadFailed = errors.New("ledger read failed")
	// ErrUnknownKind indicates that no reader is registered for the kind.
	ErrUnknownKind = errors.New("unknown ledger kind")
	// ErrEndpointRequired indicates that an RPC endpoint is required.
	ErrEndpointRequired = errors.New("rpc endpoint is required")
	// ErrInvalidAccountData indicates that seeded account data is not valid hex.
	ErrInvalidAccountData = errors.New("invalid account data")
)
