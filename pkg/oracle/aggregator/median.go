package aggregator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/metrics"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

const (
	// OutlierThreshold is the fractional deviation from median to consider an outlier.
	OutlierThreshold = 0.10 // 10%
)

// MedianAggregator aggregates prices using median and rejects outliers.
type MedianAggregator struct {
	maxAge time.Duration
	logger *logging.Logger
}

// Ensure MedianAggregator implements Aggregator interface.
var _ Aggregator = (*MedianAggregator)(nil)

// NewMedianAggregator creates a new median aggregator.
func NewMedianAggregator(maxAge time.Duration, logger *logging.Logger) *MedianAggregator {
	return &MedianAggregator{
		maxAge: maxAge,
		logger: logger,
	}
}

// Aggregate computes the median of the valid updates after dropping prices
// that deviate more than OutlierThreshold from the initial median. The
// confidence is derived from the dispersion of the retained prices.
func (a *MedianAggregator) Aggregate(updates []oracle.PriceUpdate, now int64) (oracle.Quote, error) {
	start := time.Now()
	defer func() {
		metrics.RecordAggregation(ModeMedian, time.Since(start))
	}()

	valid := oracle.FilterValid(updates, now, a.maxAge)
	metrics.RecordAggregationSources(ModeMedian, len(valid), len(updates)-len(valid))
	if len(valid) == 0 {
		return oracle.Quote{}, fmt.Errorf("%w: %d updates, none valid", oracle.ErrNoValidSources, len(updates))
	}

	// Sort a copy so the caller's slice order is untouched
	sorted := append([]oracle.PriceUpdate(nil), valid...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})

	initialMedian := median(sorted)

	threshold := decimal.NewFromFloat(OutlierThreshold)
	filtered := make([]oracle.PriceUpdate, 0, len(sorted))
	for _, u := range sorted {
		deviationPct := decimal.NewFromFloat(u.Price).Sub(initialMedian).Abs().Div(initialMedian)
		if deviationPct.GreaterThan(threshold) {
			a.logger.Debug("Rejecting outlier",
				"source", u.Source,
				"price", u.Price,
				"median", initialMedian.String(),
				"deviation_pct", deviationPct.Mul(decimal.NewFromInt(100)).String())
			metrics.RecordOutlierRejection()
			continue
		}
		filtered = append(filtered, u)
	}

	// Cannot be empty: the median itself is within threshold of itself for
	// odd counts, and the two middle prices straddle it for even counts.
	// Guard anyway.
	if len(filtered) == 0 {
		filtered = sorted
	}

	finalMedian := median(filtered)
	price := finalMedian.InexactFloat64()

	return oracle.Quote{
		Price:      price,
		Timestamp:  now,
		Confidence: confidence(price, variance(filtered, mean(filtered))),
		Status:     oracle.StatusActive,
	}, nil
}

// median computes the median of a list sorted by price.
func median(sorted []oracle.PriceUpdate) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	if n%2 == 1 {
		return decimal.NewFromFloat(sorted[n/2].Price)
	}
	lo := decimal.NewFromFloat(sorted[n/2-1].Price)
	hi := decimal.NewFromFloat(sorted[n/2].Price)
	return divide(lo.Add(hi), 2)
}
