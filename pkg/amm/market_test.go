package amm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketPrice(t *testing.T) {
	params := DefaultPricingParams

	tests := []struct {
		name      string
		yes, no   uint64
		liquidity uint64
		expect    uint64
	}{
		{"no liquidity", 1000, 1000, 0, 5000},
		{"no shares", 0, 0, 100_000, 5000},
		// 5000 * 8400 / 10000
		{"balanced thin pool", 1000, 1000, 100_000, 4200},
		// 6666 * 8400 / 10000 + 3333 * 100 / 10000
		{"yes heavy", 2000, 1000, 100_000, 5632},
		// liquidity at depth saturates the factor at 12000, capped at 10000
		{"deep pool all yes", 1000, 0, 10_000_000, 10000},
		{"deep pool balanced", 1000, 1000, 1_000_000, 6000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, MarketPrice(tt.yes, tt.no, tt.liquidity, params))
		})
	}

	assert.Greater(t, MarketPrice(2000, 1000, 100_000, params), MarketPrice(1000, 1000, 100_000, params))
}

func TestMarketPrice_Saturates(t *testing.T) {
	price := MarketPrice(math.MaxUint64, math.MaxUint64, math.MaxUint64, DefaultPricingParams)
	assert.LessOrEqual(t, price, BasisPoints)
}

func TestBuyAndSellPrice(t *testing.T) {
	yes := BuyPrice(5000, 100, 100_000, true)
	no := BuyPrice(5000, 100, 100_000, false)
	assert.Equal(t, uint64(50), yes)
	assert.Equal(t, yes, no)

	assert.Equal(t, uint64(0), BuyPrice(5000, 0, 100_000, true))
	assert.Equal(t, uint64(0), SellPrice(5000, 0, 100_000, true))

	// 10% of liquidity: ratio 1000 bps, slippage 100 bps
	assert.Equal(t, uint64(5050), BuyPrice(5000, 10_000, 100_000, true))
	assert.Equal(t, uint64(4950), SellPrice(5000, 10_000, 100_000, true))
	assert.Equal(t, uint64(2970), SellPrice(7000, 10_000, 100_000, false))

	// zero liquidity uses a flat 500 bps
	assert.Equal(t, uint64(5250), BuyPrice(5000, 10_000, 0, true))

	// slippage is capped at 1000 bps
	assert.Equal(t, uint64(5500), BuyPrice(5000, 10_000, 10_000, true))
}

func TestPayoutOdds(t *testing.T) {
	yes, no := PayoutOdds(2500)
	assert.Equal(t, uint64(40000), yes)
	assert.Equal(t, uint64(13333), no)

	yes, no = PayoutOdds(0)
	assert.Equal(t, uint64(0), yes)
	assert.Equal(t, BasisPoints, no)

	yes, no = PayoutOdds(12000)
	assert.Equal(t, BasisPoints, yes)
	assert.Equal(t, uint64(0), no)
}

func TestExpectedReturn(t *testing.T) {
	assert.Equal(t, uint64(3000), ExpectedReturn(1000, 2500, true))
	assert.Equal(t, uint64(333), ExpectedReturn(1000, 2500, false))
	// a certain outcome pays back the stake only
	assert.Equal(t, uint64(0), ExpectedReturn(1000, 10000, true))
}

func TestPoolOdds(t *testing.T) {
	odds := PoolOdds(0, 0)
	assert.Equal(t, MarketOdds{Yes: 0.5, No: 0.5, ImpliedProbability: 0.5}, odds)

	odds = PoolOdds(300, 100)
	assert.InDelta(t, 0.75, odds.Yes, 1e-12)
	assert.InDelta(t, 0.25, odds.No, 1e-12)
	assert.InDelta(t, 1.0, odds.Yes+odds.No, 1e-12)
}

func TestSaturatingHelpers(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), satAdd(math.MaxUint64, 1))
	assert.Equal(t, uint64(0), satSub(1, 2))
	assert.Equal(t, uint64(math.MaxUint64), satMul(math.MaxUint64, 2))
	assert.Equal(t, uint64(math.MaxUint64), mulDiv(math.MaxUint64, math.MaxUint64, 1))
	assert.Equal(t, uint64(math.MaxUint64/2), mulDiv(math.MaxUint64, 10, 20))
}
