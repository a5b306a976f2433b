package amm

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// TradeFeeBreakdown decomposes the fees charged on a trade amount.
type TradeFeeBreakdown struct {
	BaseFee      float64 `json:"base_fee"`
	LiquidityFee float64 `json:"liquidity_fee"`
	ProtocolFee  float64 `json:"protocol_fee"`
	TotalFees    float64 `json:"total_fees"`
	NetAmount    float64 `json:"net_amount"`
}

// TradingFees charges each configured rate on amount. The components are
// computed in decimal so that TotalFees and NetAmount add up exactly.
func TradingFees(amount float64, cfg PricingConfig) (TradeFeeBreakdown, error) {
	if !(amount >= 0) || math.IsInf(amount, 0) {
		return TradeFeeBreakdown{}, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	if err := cfg.Validate(); err != nil {
		return TradeFeeBreakdown{}, err
	}

	a := decimal.NewFromFloat(amount)
	base := a.Mul(decimal.NewFromFloat(cfg.BaseFee))
	liquidity := a.Mul(decimal.NewFromFloat(cfg.LiquidityFee))
	protocol := a.Mul(decimal.NewFromFloat(cfg.ProtocolFee))
	total := base.Add(liquidity).Add(protocol)
	net := decimal.Max(decimal.Zero, a.Sub(total))

	return TradeFeeBreakdown{
		BaseFee:      base.InexactFloat64(),
		LiquidityFee: liquidity.InexactFloat64(),
		ProtocolFee:  protocol.InexactFloat64(),
		TotalFees:    total.InexactFloat64(),
		NetAmount:    net.InexactFloat64(),
	}, nil
}
