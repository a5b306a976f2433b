package amm

import (
	"fmt"
	"math"
	"math/bits"
)

// Basis-point market pricing for binary-outcome markets. Prices are in basis
// points of certainty (10000 = 100%). All arithmetic saturates at the uint64
// bounds instead of wrapping.

const (
	// BasisPoints is 100% in basis points.
	BasisPoints uint64 = 10000

	minLiquidityFactor uint64 = 8000
	maxLiquidityFactor uint64 = 12000
	maxSizeSlippage    uint64 = 1000
	// unknownLiquiditySlippage applies when the pool liquidity is zero.
	unknownLiquiditySlippage uint64 = 500
)

// PricingParams tunes MarketPrice.
type PricingParams struct {
	BasePrice        uint64 `yaml:"base_price" json:"base_price"`
	VolatilityFactor uint64 `yaml:"volatility_factor" json:"volatility_factor"`
	LiquidityDepth   uint64 `yaml:"liquidity_depth" json:"liquidity_depth"`
	TimeDecayFactor  uint64 `yaml:"time_decay_factor" json:"time_decay_factor"`
}

// DefaultPricingParams centers an empty market at 50%.
var DefaultPricingParams = PricingParams{
	BasePrice:        5000,
	VolatilityFactor: 100,
	LiquidityDepth:   1_000_000,
	TimeDecayFactor:  50,
}

// Validate checks that BasePrice is a price in basis points.
func (p PricingParams) Validate() error {
	if p.BasePrice > BasisPoints {
		return fmt.Errorf("%w: base_price must be at most %d bps, got %d", ErrInvalidConfig, BasisPoints, p.BasePrice)
	}
	return nil
}

// MarketPrice prices the yes side from the share distribution, scaled by a
// liquidity factor in [8000,12000] bps plus an imbalance adjustment, capped
// at 10000. Empty markets return params.BasePrice.
func MarketPrice(yesShares, noShares, totalLiquidity uint64, params PricingParams) uint64 {
	if totalLiquidity == 0 {
		return params.BasePrice
	}
	totalShares := satAdd(yesShares, noShares)
	if totalShares == 0 {
		return params.BasePrice
	}

	yesProbability := mulDiv(yesShares, BasisPoints, totalShares)
	factor := liquidityFactor(totalLiquidity, params.LiquidityDepth)
	adjustment := volatilityAdjustment(yesShares, noShares, params.VolatilityFactor)

	price := satAdd(satMul(yesProbability, factor)/BasisPoints, adjustment)
	return min(price, BasisPoints)
}

// BuyPrice returns the cost of buying shares on one side at currentPrice,
// including size slippage.
func BuyPrice(currentPrice, shares, totalLiquidity uint64, yesSide bool) uint64 {
	if shares == 0 {
		return 0
	}
	baseCost := satMul(currentPrice, shares) / BasisPoints
	slippageCost := satMul(baseCost, sizeSlippage(shares, totalLiquidity)) / BasisPoints

	if yesSide {
		return satAdd(baseCost, slippageCost)
	}
	inverseCost := satMul(satSub(BasisPoints, currentPrice), shares) / BasisPoints
	return satAdd(inverseCost, slippageCost)
}

// SellPrice returns the proceeds of selling shares on one side at
// currentPrice, net of size slippage.
func SellPrice(currentPrice, shares, totalLiquidity uint64, yesSide bool) uint64 {
	if shares == 0 {
		return 0
	}
	price := currentPrice
	if !yesSide {
		price = satSub(BasisPoints, currentPrice)
	}
	value := satMul(price, shares) / BasisPoints
	reduction := satMul(value, sizeSlippage(shares, totalLiquidity)) / BasisPoints
	return satSub(value, reduction)
}

// PayoutOdds returns the gross payout per unit stake for each side in bps.
func PayoutOdds(currentPrice uint64) (yes, no uint64) {
	if currentPrice == 0 {
		return 0, BasisPoints
	}
	if currentPrice >= BasisPoints {
		return BasisPoints, 0
	}
	square := BasisPoints * BasisPoints
	return square / currentPrice, square / (BasisPoints - currentPrice)
}

// ExpectedReturn returns the profit of investment if outcome resolves as
// predicted. It is zero when the payout does not exceed the stake.
func ExpectedReturn(investment, currentPrice uint64, outcome bool) uint64 {
	yes, no := PayoutOdds(currentPrice)
	odds := no
	if outcome {
		odds = yes
	}
	return satSub(satMul(investment, odds)/BasisPoints, investment)
}

// PoolOdds derives market odds from the amounts staked on each side.
// An empty pool is even.
func PoolOdds(yesAmount, noAmount uint64) MarketOdds {
	total := float64(yesAmount) + float64(noAmount)
	if total == 0 {
		return MarketOdds{Yes: 0.5, No: 0.5, ImpliedProbability: 0.5}
	}
	yes := float64(yesAmount) / total
	return MarketOdds{Yes: yes, No: 1 - yes, ImpliedProbability: yes}
}

func liquidityFactor(current, target uint64) uint64 {
	if target == 0 {
		return BasisPoints
	}
	ratio := mulDiv(current, BasisPoints, target)
	factor := satAdd(minLiquidityFactor, satMul(ratio, 4000)/BasisPoints)
	return max(minLiquidityFactor, min(maxLiquidityFactor, factor))
}

func volatilityAdjustment(yesShares, noShares, volatilityFactor uint64) uint64 {
	total := satAdd(yesShares, noShares)
	if total == 0 {
		return 0
	}
	imbalance := satSub(max(yesShares, noShares), min(yesShares, noShares))
	ratio := mulDiv(imbalance, BasisPoints, total)
	return satMul(ratio, volatilityFactor) / BasisPoints
}

// sizeSlippage grows quadratically with the order's share of liquidity.
func sizeSlippage(orderSize, totalLiquidity uint64) uint64 {
	if totalLiquidity == 0 {
		return unknownLiquiditySlippage
	}
	ratio := mulDiv(orderSize, BasisPoints, totalLiquidity)
	return min(satMul(ratio, ratio)/BasisPoints, maxSizeSlippage)
}

func satAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func satMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return math.MaxUint64
	}
	return lo
}

// mulDiv computes a*b/d with a 128-bit intermediate, saturating when the
// quotient does not fit in 64 bits. d must be non-zero.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return math.MaxUint64
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}
