package amm

import "errors"

var (
	// ErrInvalidPriceInput indicates yes/no prices that cannot be normalized.
	ErrInvalidPriceInput = errors.New("invalid price input")
	// ErrInvalidProbability indicates a probability outside the accepted range.
	ErrInvalidProbability = errors.New("invalid probability")
	// ErrInvalidOdds indicates negative odds.
	ErrInvalidOdds = errors.New("invalid odds")
	// ErrInvalidAmount indicates a negative or non-numeric amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidLiquidity indicates a non-positive pool liquidity or price.
	ErrInvalidLiquidity = errors.New("invalid liquidity")
	// ErrInvalidTolerance indicates a tolerance outside [0,1].
	ErrInvalidTolerance = errors.New("invalid tolerance")
	// ErrInvalidConfig indicates a pricing config with a rate outside [0,1).
	ErrInvalidConfig = errors.New("invalid pricing config")
	// ErrQuoteUnusable indicates an oracle quote that is stale or not active.
	ErrQuoteUnusable = errors.New("oracle quote unusable for trading")
)
