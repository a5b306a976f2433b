package feed

import (
	"context"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// Ingest aggregates caller-supplied updates and pushes the result to
// subscribers. Aggregation errors such as oracle.ErrNoValidSources are
// returned and nothing is pushed.
func (f *Feed) Ingest(updates []oracle.PriceUpdate) (oracle.Quote, error) {
	if f.State() == StateDestroyed {
		return oracle.Quote{}, ErrFeedDestroyed
	}

	q, err := f.aggregator.Aggregate(updates, f.now().UnixMilli())
	if err != nil {
		return oracle.Quote{}, err
	}
	if !f.publish(q) {
		return oracle.Quote{}, ErrFeedDestroyed
	}
	return q, nil
}

// AggregateSources reads the bound account and every configured source
// account, aggregates the readable ones and pushes the result. Unreadable
// accounts are logged and skipped.
func (f *Feed) AggregateSources(ctx context.Context) (oracle.Quote, error) {
	if f.State() == StateDestroyed {
		return oracle.Quote{}, ErrFeedDestroyed
	}

	accounts := append([]string{f.address}, f.sourceAccounts...)
	updates := make([]oracle.PriceUpdate, 0, len(accounts))
	for _, address := range accounts {
		u, err := f.reader.ReadUpdate(ctx, address, f.symbol)
		if err != nil {
			f.logger.Warn("Skipping unreadable source account",
				"source", address,
				"error", err)
			continue
		}
		updates = append(updates, u)
	}

	return f.Ingest(updates)
}
