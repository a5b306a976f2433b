package aggregator

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// mean returns the arithmetic mean of the update prices, summed in input order.
func mean(updates []oracle.PriceUpdate) decimal.Decimal {
	sum := decimal.Zero
	for _, u := range updates {
		sum = sum.Add(decimal.NewFromFloat(u.Price))
	}
	return divide(sum, len(updates))
}

// variance returns the population variance of the update prices around center.
func variance(updates []oracle.PriceUpdate, center decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, u := range updates {
		diff := decimal.NewFromFloat(u.Price).Sub(center)
		sum = sum.Add(diff.Mul(diff))
	}
	return divide(sum, len(updates))
}

// divide returns sum/n keeping DivisionPrecision significant digits below
// the leading digit of sum, so tiny magnitudes are not rounded to zero.
func divide(sum decimal.Decimal, n int) decimal.Decimal {
	scale := int32(decimal.DivisionPrecision)
	if lead := sum.Exponent() + int32(sum.NumDigits()); lead < 0 {
		scale -= lead
	}
	return sum.DivRound(decimal.NewFromInt(int64(n)), scale)
}

// confidence maps dispersion to [0,1]: max(0, 1 - stddev/price).
// A non-positive price yields 0.
func confidence(price float64, variance decimal.Decimal) float64 {
	if price <= 0 {
		return 0
	}
	stddev := math.Sqrt(variance.InexactFloat64())
	return math.Max(0, 1-stddev/price)
}
