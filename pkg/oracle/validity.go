package oracle

import (
	"math"
	"time"
)

// DefaultMaxAge is the age after which a price is no longer trusted.
const DefaultMaxAge = 5 * time.Minute

// IsStale reports whether timestamp (ms since epoch) is older than maxAge.
func IsStale(timestamp int64, maxAge time.Duration) bool {
	return IsStaleAt(timestamp, time.Now().UnixMilli(), maxAge)
}

// IsStaleAt reports whether now-timestamp exceeds maxAge. An age equal to
// maxAge is not stale.
func IsStaleAt(timestamp, now int64, maxAge time.Duration) bool {
	return now-timestamp > maxAge.Milliseconds()
}

// IsValidUpdate reports whether update has a finite positive price and is no
// older than maxAge at now (ms since epoch).
func IsValidUpdate(update PriceUpdate, now int64, maxAge time.Duration) bool {
	return update.Price > 0 && !math.IsInf(update.Price, 1) && now-update.Timestamp <= maxAge.Milliseconds()
}

// FilterValid returns the valid updates in input order.
func FilterValid(updates []PriceUpdate, now int64, maxAge time.Duration) []PriceUpdate {
	valid := make([]PriceUpdate, 0, len(updates))
	for _, u := range updates {
		if IsValidUpdate(u, now, maxAge) {
			valid = append(valid, u)
		}
	}
	return valid
}
