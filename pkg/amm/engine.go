package amm

import (
	"fmt"
	"time"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// TradeRequest describes a trade to be quoted against an oracle price.
type TradeRequest struct {
	Amount    float64 `json:"amount"`
	Liquidity float64 `json:"liquidity"`
	Tolerance float64 `json:"tolerance"`
}

// TradeQuote is the full pricing of a trade.
type TradeQuote struct {
	Quote              oracle.Quote      `json:"quote"`
	Fees               TradeFeeBreakdown `json:"fees"`
	Impact             PriceImpactResult `json:"impact"`
	SlippageAcceptable bool              `json:"slippage_acceptable"`
	ExpectedOutput     float64           `json:"expected_output"`
	MinimumReceived    float64           `json:"minimum_received"`
	MaximumInput       float64           `json:"maximum_input"`
}

// Engine prices trades with a fixed PricingConfig.
type Engine struct {
	cfg    PricingConfig
	maxAge time.Duration
	now    func() time.Time
}

// NewEngine validates cfg and returns an engine that rejects quotes older
// than maxAge (oracle.DefaultMaxAge when non-positive).
func NewEngine(cfg PricingConfig, maxAge time.Duration) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if maxAge <= 0 {
		maxAge = oracle.DefaultMaxAge
	}
	return &Engine{cfg: cfg, maxAge: maxAge, now: time.Now}, nil
}

// Config returns the engine's pricing config.
func (e *Engine) Config() PricingConfig {
	return e.cfg
}

// QuoteTrade charges fees on req.Amount, simulates the net amount against
// the pool at the oracle price and derives tolerance bounds.
func (e *Engine) QuoteTrade(q oracle.Quote, req TradeRequest) (TradeQuote, error) {
	if q.Status != oracle.StatusActive {
		return TradeQuote{}, fmt.Errorf("%w: status %s", ErrQuoteUnusable, q.Status)
	}
	if oracle.IsStaleAt(q.Timestamp, e.now().UnixMilli(), e.maxAge) {
		return TradeQuote{}, fmt.Errorf("%w: quote from %s is stale", ErrQuoteUnusable, q.Time().UTC().Format(time.RFC3339))
	}

	fees, err := TradingFees(req.Amount, e.cfg)
	if err != nil {
		return TradeQuote{}, err
	}
	impact, err := PriceImpact(fees.NetAmount, req.Liquidity, q.Price)
	if err != nil {
		return TradeQuote{}, err
	}

	expected := fees.NetAmount * impact.NewPrice
	minimum, err := MinimumReceived(expected, req.Tolerance)
	if err != nil {
		return TradeQuote{}, err
	}
	maximum, err := MaximumInput(req.Amount, req.Tolerance)
	if err != nil {
		return TradeQuote{}, err
	}

	return TradeQuote{
		Quote:              q,
		Fees:               fees,
		Impact:             impact,
		SlippageAcceptable: IsSlippageAcceptable(impact.Slippage, e.cfg.MaxSlippage),
		ExpectedOutput:     expected,
		MinimumReceived:    minimum,
		MaximumInput:       maximum,
	}, nil
}
