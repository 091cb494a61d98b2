// Package models provides the core data structures for the tick
// aggregation pipeline: raw input rows, cleaned ticks, price bounds
// and OHLCV bars.
package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire format for tick timestamps, precise to
// the millisecond.
const TimestampLayout = "2006-01-02 15:04:05.000"

// RawRow is one unparsed record as read from a source file. Fields are
// kept as strings because raw input may be malformed; only rows that
// survive structural validation become Ticks.
type RawRow struct {
	Timestamp string
	Price     string
	Size      string
}

// Tick represents a single validated trade record.
type Tick struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Size      int64           `json:"size"`
}

// String returns a human-readable representation of the tick.
func (t Tick) String() string {
	return fmt.Sprintf("Tick{Timestamp: %s, Price: %s, Size: %d}",
		t.Timestamp.Format(TimestampLayout), t.Price, t.Size)
}

// PriceBounds holds the acceptable price range derived from the
// interquartile spread of the dataset's structurally-valid prices.
// A price p is in range when Lower <= p <= Upper.
type PriceBounds struct {
	Lower decimal.Decimal `json:"lower"`
	Upper decimal.Decimal `json:"upper"`
}

// Contains reports whether the price lies within the bounds, both ends
// inclusive.
func (b PriceBounds) Contains(price decimal.Decimal) bool {
	return !price.LessThan(b.Lower) && !price.GreaterThan(b.Upper)
}

// String returns a human-readable representation of the bounds.
func (b PriceBounds) String() string {
	return fmt.Sprintf("PriceBounds{Lower: %s, Upper: %s}", b.Lower, b.Upper)
}
