// Package amm implements automated-market-maker pricing: odds and
// probability conversion, fee decomposition, constant-product price impact
// and slippage bounds. All functions are pure and safe for concurrent use.
package amm

import "fmt"

// PricingConfig holds the fee and slippage rates, each in [0,1).
type PricingConfig struct {
	BaseFee      float64 `yaml:"base_fee" json:"base_fee"`
	LiquidityFee float64 `yaml:"liquidity_fee" json:"liquidity_fee"`
	ProtocolFee  float64 `yaml:"protocol_fee" json:"protocol_fee"`
	MaxSlippage  float64 `yaml:"max_slippage" json:"max_slippage"`
}

// DefaultPricingConfig is the pricing config used when none is supplied.
var DefaultPricingConfig = PricingConfig{
	BaseFee:      0.001,
	LiquidityFee: 0.002,
	ProtocolFee:  0.0005,
	MaxSlippage:  0.05,
}

// Validate checks that every rate lies in [0,1).
func (c PricingConfig) Validate() error {
	rates := []struct {
		name  string
		value float64
	}{
		{"base_fee", c.BaseFee},
		{"liquidity_fee", c.LiquidityFee},
		{"protocol_fee", c.ProtocolFee},
		{"max_slippage", c.MaxSlippage},
	}
	for _, r := range rates {
		if !(r.value >= 0 && r.value < 1) {
			return fmt.Errorf("%w: %s must be in [0,1), got %v", ErrInvalidConfig, r.name, r.value)
		}
	}
	return nil
}
