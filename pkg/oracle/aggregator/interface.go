// Package aggregator provides price aggregation strategies.
package aggregator

import (
	"fmt"
	"time"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

const (
	// ModeAverage uses the equal-weighted mean of all valid updates.
	ModeAverage = "average"
	// ModeMedian uses the median with outlier rejection.
	ModeMedian = "median"
)

// Aggregator combines raw price updates into a single quote.
type Aggregator interface {
	// Aggregate filters updates for validity at now (ms since epoch) and
	// combines the survivors. It fails with oracle.ErrNoValidSources when
	// nothing survives.
	Aggregate(updates []oracle.PriceUpdate, now int64) (oracle.Quote, error)
}

// NewAggregator creates an aggregator based on the specified mode.
// A non-positive maxAge defaults to oracle.DefaultMaxAge.
func NewAggregator(mode string, maxAge time.Duration, logger *logging.Logger) (Aggregator, error) {
	if logger == nil {
		logger = logging.NewNoopLogger()
	}
	if maxAge <= 0 {
		maxAge = oracle.DefaultMaxAge
	}

	switch mode {
	case ModeAverage, "":
		return NewAverageAggregator(maxAge, logger), nil
	case ModeMedian:
		return NewMedianAggregator(maxAge, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: average, median)", ErrUnknownMode, mode)
	}
}
