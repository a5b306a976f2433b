package aggregator

import (
	"fmt"
	"time"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// AverageAggregator aggregates prices using simple arithmetic mean.
// Every valid update counts once; repeated submissions from one source are
// not de-duplicated.
type AverageAggregator struct {
	maxAge time.Duration
	logger *logging.Logger
}

// Ensure AverageAggregator implements Aggregator interface
var _ Aggregator = (*AverageAggregator)(nil)

// NewAverageAggregator creates a new average aggregator
func NewAverageAggregator(maxAge time.Duration, logger *logging.Logger) *AverageAggregator {
	return &AverageAggregator{
		maxAge: maxAge,
		logger: logger,
	}
}

// Aggregate computes the mean price of the valid updates and derives a
// confidence from their dispersion.
func (a *AverageAggregator) Aggregate(updates []oracle.PriceUpdate, now int64) (oracle.Quote, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregation(ModeAverage, time.Since(start))
	}()

	valid := oracle.FilterValid(updates, now, a.maxAge)
	metrics.RecordAggregationSources(ModeAverage, len(valid), len(updates)-len(valid))
	if len(valid) == 0 {
		return oracle.Quote{}, fmt.Errorf("%w: %d updates, none valid", oracle.ErrNoValidSources, len(updates))
	}

	avg := mean(valid)
	price := avg.InexactFloat64()

	q := oracle.Quote{
		Price:      price,
		Timestamp:  now,
		Confidence: confidence(price, variance(valid, avg)),
		Status:     oracle.StatusActive,
	}

	a.logger.Debug("Aggregated prices using average",
		"sources", len(valid),
		"rejected", len(updates)-len(valid),
		"price", q.Price,
		"confidence", q.Confidence)
	return q, nil
}
