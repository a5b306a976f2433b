package oracle

import (
	"context"
	"fmt"

	"github.com/StrathCole/zentro-oracle/pkg/oracle/ledger"
)

// Reader reads and decodes oracle accounts. It holds no state besides the
// ledger it reads from.
type Reader struct {
	ledger ledger.AccountReader
}

// NewReader creates a reader over the given ledger.
func NewReader(l ledger.AccountReader) *Reader {
	return &Reader{ledger: l}
}

// ReadQuote fetches address and decodes its price record.
func (r *Reader) ReadQuote(ctx context.Context, address string) (Quote, error) {
	data, err := r.ledger.GetAccountInfo(ctx, address)
	if err != nil {
		return Quote{}, err
	}

	q, err := DecodeQuote(data)
	if err != nil {
		return Quote{}, fmt.Errorf("account %s: %w", address, err)
	}
	return q, nil
}

// CheckAccount confirms that address exists without decoding it.
func (r *Reader) CheckAccount(ctx context.Context, address string) error {
	_, err := r.ledger.GetAccountInfo(ctx, address)
	return err
}

// ReadUpdate reads address and converts the quote into a PriceUpdate tagged
// with symbol and the account address as source.
func (r *Reader) ReadUpdate(ctx context.Context, address, symbol string) (PriceUpdate, error) {
	q, err := r.ReadQuote(ctx, address)
	if err != nil {
		return PriceUpdate{}, err
	}
	return PriceUpdate{
		Symbol:    symbol,
		Price:     q.Price,
		Timestamp: q.Timestamp,
		Source:    address,
	}, nil
}
