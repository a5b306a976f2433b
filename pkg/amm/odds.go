package amm

import (
	"fmt"
	"math"
)

// MarketOdds are normalized yes/no prices. Yes+No == 1.
type MarketOdds struct {
	Yes                float64 `json:"yes"`
	No                 float64 `json:"no"`
	ImpliedProbability float64 `json:"implied_probability"`
}

// OddsFromPrices normalizes a yes/no price pair so that the two sides sum to
// one. The implied probability is the normalized yes price.
func OddsFromPrices(yesPrice, noPrice float64) (MarketOdds, error) {
	if yesPrice < 0 || noPrice < 0 || math.IsNaN(yesPrice) || math.IsNaN(noPrice) {
		return MarketOdds{}, fmt.Errorf("%w: yes=%v no=%v", ErrInvalidPriceInput, yesPrice, noPrice)
	}
	total := yesPrice + noPrice
	if total <= 0 || math.IsInf(total, 0) {
		return MarketOdds{}, fmt.Errorf("%w: yes+no must be positive and finite, got %v", ErrInvalidPriceInput, total)
	}

	yes := yesPrice / total
	return MarketOdds{
		Yes:                yes,
		No:                 1 - yes,
		ImpliedProbability: yes,
	}, nil
}

// ProbabilityToOdds converts a probability to fractional odds (1-p)/p.
func ProbabilityToOdds(p float64) (float64, error) {
	if !(p > 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidProbability, p)
	}
	return (1 - p) / p, nil
}

// OddsToProbability converts fractional odds to a probability 1/(o+1).
func OddsToProbability(o float64) (float64, error) {
	if !(o >= 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOdds, o)
	}
	return 1 / (o + 1), nil
}
