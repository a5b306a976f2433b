package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StrathCole/zentro-oracle/pkg/logging"
	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

const now int64 = 1_700_000_000_000

func update(price float64, ageMs int64, source string) oracle.PriceUpdate {
	return oracle.PriceUpdate{
		Symbol:    "ZEN/USD",
		Price:     price,
		Timestamp: now - ageMs,
		Source:    source,
	}
}

func TestNewAggregator(t *testing.T) {
	logger := logging.NewNoopLogger()

	agg, err := NewAggregator(ModeAverage, 0, logger)
	require.NoError(t, err)
	assert.IsType(t, &AverageAggregator{}, agg)

	agg, err = NewAggregator("", time.Minute, nil)
	require.NoError(t, err)
	assert.IsType(t, &AverageAggregator{}, agg)

	agg, err = NewAggregator(ModeMedian, time.Minute, logger)
	require.NoError(t, err)
	assert.IsType(t, &MedianAggregator{}, agg)

	_, err = NewAggregator("tvwap", time.Minute, logger)
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestAverageAggregator_Mean(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(100, 0, "a"),
		update(102, 1000, "b"),
		update(98, 2000, "c"),
	}, now)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, q.Price, 1e-9)
	assert.Equal(t, now, q.Timestamp)
	assert.Equal(t, oracle.StatusActive, q.Status)
	// stddev = sqrt(8/3)
	assert.InDelta(t, 1-math.Sqrt(8.0/3.0)/100, q.Confidence, 1e-9)
}

func TestAverageAggregator_SmallMagnitudes(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())
	tests := []struct {
		name       string
		prices     []float64
		price      float64
		confidence float64
	}{
		{"nano scale", []float64{1e-9, 2e-9, 4e-9}, 7e-9 / 3, 1 - math.Sqrt(14)/7},
		{"atto scale", []float64{1e-18, 3e-18}, 2e-18, 0.5},
		{"sub-atto scale", []float64{5e-25, 5e-25}, 5e-25, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := make([]oracle.PriceUpdate, len(tt.prices))
			for i, p := range tt.prices {
				updates[i] = update(p, 0, "s")
			}
			q, err := agg.Aggregate(updates, now)
			require.NoError(t, err)
			assert.InEpsilon(t, tt.price, q.Price, 1e-12)
			assert.InDelta(t, tt.confidence, q.Confidence, 1e-9)
		})
	}
}

func TestAggregators_SkipInfinitePrice(t *testing.T) {
	logger := logging.NewNoopLogger()
	for _, agg := range []Aggregator{
		NewAverageAggregator(oracle.DefaultMaxAge, logger),
		NewMedianAggregator(oracle.DefaultMaxAge, logger),
	} {
		var q oracle.Quote
		var err error
		require.NotPanics(t, func() {
			q, err = agg.Aggregate([]oracle.PriceUpdate{
				update(math.Inf(1), 0, "inf"),
				update(1, 0, "a"),
			}, now)
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, q.Price)
	}
}

func TestAverageAggregator_SingleSource(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	q, err := agg.Aggregate([]oracle.PriceUpdate{update(0.42, 0, "a")}, now)
	require.NoError(t, err)
	assert.InDelta(t, 0.42, q.Price, 1e-12)
	assert.InDelta(t, 1.0, q.Confidence, 1e-12)
}

func TestAverageAggregator_FiltersInvalid(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())
	maxAgeMs := oracle.DefaultMaxAge.Milliseconds()

	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(10, 0, "a"),
		update(0, 0, "zero"),
		update(-5, 0, "negative"),
		update(1000, maxAgeMs+1, "stale"),
		update(20, maxAgeMs, "boundary"),
	}, now)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, q.Price, 1e-9)
	assert.InDelta(t, 1-5.0/15.0, q.Confidence, 1e-9)
}

func TestAverageAggregator_DuplicateSourcesCountTwice(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(10, 0, "a"),
		update(10, 0, "a"),
		update(40, 0, "b"),
	}, now)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, q.Price, 1e-9)
}

func TestAverageAggregator_NoValidSources(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	_, err := agg.Aggregate(nil, now)
	require.ErrorIs(t, err, oracle.ErrNoValidSources)

	_, err = agg.Aggregate([]oracle.PriceUpdate{
		update(0, 0, "zero"),
		update(5, oracle.DefaultMaxAge.Milliseconds()+1, "stale"),
	}, now)
	require.ErrorIs(t, err, oracle.ErrNoValidSources)
}

func TestAverageAggregator_ConfidenceFloorsAtZero(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	// stddev (~432.6) exceeds the mean (250.75)
	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(1, 0, "a"),
		update(1, 0, "b"),
		update(1, 0, "c"),
		update(1000, 0, "d"),
	}, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, q.Confidence)

	assert.Equal(t, 0.0, confidence(0, decimal.Zero))
}

func TestAverageAggregator_Deterministic(t *testing.T) {
	agg := NewAverageAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())
	updates := []oracle.PriceUpdate{
		update(0.1, 0, "a"),
		update(0.2, 0, "b"),
		update(0.3, 0, "c"),
	}

	first, err := agg.Aggregate(updates, now)
	require.NoError(t, err)
	second, err := agg.Aggregate(updates, now)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMedianAggregator_RejectsOutliers(t *testing.T) {
	agg := NewMedianAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(100, 0, "a"),
		update(150, 0, "outlier"),
		update(101, 0, "b"),
		update(99, 0, "c"),
	}, now)
	require.NoError(t, err)

	assert.InDelta(t, 100.0, q.Price, 1e-9)
	assert.InDelta(t, 1-math.Sqrt(2.0/3.0)/100, q.Confidence, 1e-9)
	assert.Equal(t, oracle.StatusActive, q.Status)
}

func TestMedianAggregator_SmallMagnitudes(t *testing.T) {
	agg := NewMedianAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	// both prices deviate 50% from the median, so the unfiltered set is kept
	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(1e-18, 0, "a"),
		update(3e-18, 0, "b"),
	}, now)
	require.NoError(t, err)
	assert.InEpsilon(t, 2e-18, q.Price, 1e-12)
	assert.InDelta(t, 0.5, q.Confidence, 1e-9)

	q, err = agg.Aggregate([]oracle.PriceUpdate{
		update(1e-9, 0, "a"),
		update(1.02e-9, 0, "b"),
		update(0.98e-9, 0, "c"),
	}, now)
	require.NoError(t, err)
	assert.InEpsilon(t, 1e-9, q.Price, 1e-12)
	assert.InDelta(t, 1-math.Sqrt(8.0/3.0)/100, q.Confidence, 1e-9)
}

func TestMedianAggregator_EvenCount(t *testing.T) {
	agg := NewMedianAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	q, err := agg.Aggregate([]oracle.PriceUpdate{
		update(10, 0, "a"),
		update(10.4, 0, "b"),
	}, now)
	require.NoError(t, err)
	assert.InDelta(t, 10.2, q.Price, 1e-9)
}

func TestMedianAggregator_DoesNotReorderInput(t *testing.T) {
	agg := NewMedianAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())
	updates := []oracle.PriceUpdate{update(3, 0, "a"), update(1, 0, "b"), update(2, 0, "c")}

	_, err := agg.Aggregate(updates, now)
	require.NoError(t, err)
	assert.Equal(t, "a", updates[0].Source)
	assert.Equal(t, "b", updates[1].Source)
}

func TestMedianAggregator_NoValidSources(t *testing.T) {
	agg := NewMedianAggregator(oracle.DefaultMaxAge, logging.NewNoopLogger())

	_, err := agg.Aggregate([]oracle.PriceUpdate{update(-1, 0, "a")}, now)
	require.ErrorIs(t, err, oracle.ErrNoValidSources)
}
