package amm

import (
	"fmt"
	"math"
)

// PriceImpactResult describes how far a trade moves the pool price.
// Slippage equals PriceImpact in the constant-product model.
type PriceImpactResult struct {
	PriceImpact float64 `json:"price_impact"`
	NewPrice    float64 `json:"new_price"`
	Slippage    float64 `json:"slippage"`
}

// PriceImpact simulates adding tradeAmount to a constant-product pool with
// k = liquidity*currentPrice. A trade that would drain the pool
// (tradeAmount <= -liquidity) is rejected with ErrInvalidLiquidity.
func PriceImpact(tradeAmount, liquidity, currentPrice float64) (PriceImpactResult, error) {
	if math.IsNaN(tradeAmount) || math.IsInf(tradeAmount, 0) {
		return PriceImpactResult{}, fmt.Errorf("%w: trade amount %v", ErrInvalidAmount, tradeAmount)
	}
	if !(liquidity > 0) || !(currentPrice > 0) {
		return PriceImpactResult{}, fmt.Errorf("%w: liquidity=%v price=%v", ErrInvalidLiquidity, liquidity, currentPrice)
	}
	after := liquidity + tradeAmount
	if after <= 0 {
		return PriceImpactResult{}, fmt.Errorf("%w: trade %v exceeds liquidity %v", ErrInvalidLiquidity, tradeAmount, liquidity)
	}

	k := liquidity * currentPrice
	newPrice := k / after
	impact := math.Abs(newPrice-currentPrice) / currentPrice

	return PriceImpactResult{
		PriceImpact: impact,
		NewPrice:    newPrice,
		Slippage:    impact,
	}, nil
}

// MinimumReceived returns expected reduced by tolerance.
func MinimumReceived(expected, tolerance float64) (float64, error) {
	if err := checkTolerance(tolerance); err != nil {
		return 0, err
	}
	return expected * (1 - tolerance), nil
}

// MaximumInput returns expected increased by tolerance.
func MaximumInput(expected, tolerance float64) (float64, error) {
	if err := checkTolerance(tolerance); err != nil {
		return 0, err
	}
	return expected * (1 + tolerance), nil
}

// IsSlippageAcceptable reports whether slippage is within maxSlippage.
func IsSlippageAcceptable(slippage, maxSlippage float64) bool {
	return slippage <= maxSlippage
}

func checkTolerance(tolerance float64) error {
	if !(tolerance >= 0 && tolerance <= 1) {
		return fmt.Errorf("%w: %v not in [0,1]", ErrInvalidTolerance, tolerance)
	}
	return nil
}
