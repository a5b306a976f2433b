package feed

import (
	"iter"
	"math"
	"time"

	"github.com/StrathCole/zentro-oracle/pkg/oracle"
)

// HistoryProvider supplies the quote observed at a point in time.
type HistoryProvider interface {
	QuoteAt(t time.Time) oracle.Quote
}

// SyntheticHistory generates a deterministic sine wave around Base.
type SyntheticHistory struct {
	Base       float64
	Amplitude  float64 // fraction of Base
	Period     time.Duration
	Confidence float64
}

const (
	defaultHistoryAmplitude  = 0.02
	defaultHistoryPeriod     = 24 * time.Hour
	defaultHistoryConfidence = 0.95
)

// QuoteAt returns the synthetic quote at t. Prices never go below zero.
func (h SyntheticHistory) QuoteAt(t time.Time) oracle.Quote {
	price := h.Base
	if h.Period >= time.Millisecond {
		phase := 2 * math.Pi * float64(t.UnixMilli()%h.Period.Milliseconds()) / float64(h.Period.Milliseconds())
		price = h.Base * (1 + h.Amplitude*math.Sin(phase))
	}
	return oracle.Quote{
		Price:      math.Max(0, price),
		Timestamp:  t.UnixMilli(),
		Confidence: h.Confidence,
		Status:     oracle.StatusActive,
	}
}

// GetHistoricalPrices yields one quote per step from start to end
// inclusive. The sequence is lazy and restartable. A non-positive step or
// an end before start yields nothing.
func (f *Feed) GetHistoricalPrices(start, end time.Time, step time.Duration) iter.Seq[oracle.Quote] {
	return func(yield func(oracle.Quote) bool) {
		if step <= 0 || end.Before(start) {
			return
		}
		provider := f.historyProvider()
		for t := start; !t.After(end); t = t.Add(step) {
			if !yield(provider.QuoteAt(t)) {
				return
			}
		}
	}
}

func (f *Feed) historyProvider() HistoryProvider {
	if f.history != nil {
		return f.history
	}
	base := 1.0
	if q, ok := f.LastQuote(); ok && q.Price > 0 {
		base = q.Price
	}
	return SyntheticHistory{
		Base:       base,
		Amplitude:  defaultHistoryAmplitude,
		Period:     defaultHistoryPeriod,
		Confidence: defaultHistoryConfidence,
	}
}
