// Package oracle defines oracle quotes and the primitives that produce them:
// account decoding, staleness checks and the account-backed price reader.
package oracle

import "time"

// Status is the lifecycle state reported with a quote.
type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
	StatusStale    Status = "stale"
)

// StatusFromCode maps the on-chain status byte to a Status.
// Unknown codes map to StatusInactive.
func StatusFromCode(code uint8) Status {
	switch code {
	case 1:
		return StatusActive
	case 2:
		return StatusStale
	default:
		return StatusInactive
	}
}

// Code returns the on-chain status byte for s.
func (s Status) Code() uint8 {
	switch s {
	case StatusActive:
		return 1
	case StatusStale:
		return 2
	default:
		return 0
	}
}

// Quote is a single timestamped, confidence-scored price observation.
// Quotes are values; every consumer receives its own copy.
type Quote struct {
	Price      float64 `json:"price"`
	Timestamp  int64   `json:"timestamp"` // ms since epoch
	Confidence float64 `json:"confidence"`
	Status     Status  `json:"status"`
}

// Time returns the quote timestamp as a time.Time.
func (q Quote) Time() time.Time {
	return time.UnixMilli(q.Timestamp)
}

// PriceUpdate is one raw contribution to aggregation.
type PriceUpdate struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"timestamp"` // ms since epoch
	Source    string  `json:"source"`
}
