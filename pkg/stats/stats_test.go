package stats

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

func TestAverage(t *testing.T) {
	assert.Equal(t, 0.0, Average(nil))
	assert.Equal(t, 0.0, Average([]float64{}))
	assert.InDelta(t, 2.0, Average([]float64{1, 2, 3}), 1e-12)
}

func TestVolatility(t *testing.T) {
	assert.Equal(t, 0.0, Volatility([]float64{5, 5, 5}))
	assert.Equal(t, 0.0, Volatility(nil))
	assert.Equal(t, 0.0, Volatility([]float64{42}))
	// population stddev of 2,4,4,4,5,5,7,9 is 2
	assert.InDelta(t, 2.0, Volatility([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, SharpeRatio(nil, DefaultRiskFreeRate))
	assert.Equal(t, 0.0, SharpeRatio([]float64{}, 0.5))
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.5, 0.5, 0.5}, DefaultRiskFreeRate))

	// mean 0.05, stddev 0.05
	assert.InDelta(t, 0.6, SharpeRatio([]float64{0, 0.1}, DefaultRiskFreeRate), 1e-12)
	// single return has zero dispersion
	assert.Equal(t, 0.0, SharpeRatio([]float64{0.3}, 0))
}

func TestReturns(t *testing.T) {
	assert.Nil(t, Returns(nil))
	assert.Nil(t, Returns([]float64{1}))

	r := Returns([]float64{100, 110, 99})
	assert.Len(t, r, 2)
	assert.InDelta(t, 0.1, r[0], 1e-12)
	assert.InDelta(t, -0.1, r[1], 1e-12)

	assert.Len(t, Returns([]float64{0, 1, 2}), 1)
}

func TestPricesFromQuotes(t *testing.T) {
	quotes := []oracle.Quote{{Price: 1}, {Price: 2}, {Price: 3}}
	assert.Equal(t, []float64{1, 2, 3}, PricesFromQuotes(slices.Values(quotes)))
	assert.Empty(t, PricesFromQuotes(slices.Values([]oracle.Quote(nil))))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{100, 110, 99}, 0)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 103.0, s.Average, 1e-12)
	assert.InDelta(t, math.Sqrt((9+49+16)/3.0), s.Volatility, 1e-12)
	assert.InDelta(t, 0.0, s.SharpeRatio, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil, DefaultRiskFreeRate))
}
