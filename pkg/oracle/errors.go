package oracle

import (
	"errors"

	"github.com/StrathCole/zentro-oracle/pkg/oracle/ledger"
)

var (
	// ErrAccountNotFound indicates that the oracle account is absent from the ledger.
	ErrAccountNotFound = ledger.ErrAccountNotFound
	// ErrDecode indicates that account data does not hold a valid price record.
	ErrDecode = errors.New("decode error")
	// ErrNoValidSources indicates that no price update survived validity filtering.
	ErrNoValidSources = errors.New("no valid price sources")
)
