// Package stats computes volatility and risk-adjusted return figures over
// price series.
package stats

import (
	"iter"
	"math"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// DefaultRiskFreeRate is the per-period risk-free rate used by SharpeRatio.
const DefaultRiskFreeRate = 0.02

// Average returns the arithmetic mean of values, or 0 when empty.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Volatility returns the population standard deviation of values, or 0 for
// fewer than two values.
func Volatility(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stddev(values)
}

// SharpeRatio returns (mean(returns)-riskFreeRate)/stddev(returns). It
// returns 0 when returns is empty or has no dispersion.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stddev(returns)
	if sd == 0 {
		return 0
	}
	return (Average(returns) - riskFreeRate) / sd
}

// Returns converts prices into simple period returns p[i]/p[i-1]-1.
// Periods starting at a non-positive price are skipped.
func Returns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 {
			continue
		}
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// PricesFromQuotes drains seq into a slice of prices.
func PricesFromQuotes(seq iter.Seq[oracle.Quote]) []float64 {
	var prices []float64
	for q := range seq {
		prices = append(prices, q.Price)
	}
	return prices
}

// Summary describes a price series.
type Summary struct {
	Count       int     `json:"count"`
	Average     float64 `json:"average"`
	Volatility  float64 `json:"volatility"`
	SharpeRatio float64 `json:"sharpe_ratio"`
}

// Summarize reports the average and volatility of prices and the Sharpe
// ratio of their period returns.
func Summarize(prices []float64, riskFreeRate float64) Summary {
	return Summary{
		Count:       len(prices),
		Average:     Average(prices),
		Volatility:  Volatility(prices),
		SharpeRatio: SharpeRatio(Returns(prices), riskFreeRate),
	}
}

func stddev(values []float64) float64 {
	mean := Average(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
