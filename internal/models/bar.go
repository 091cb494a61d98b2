package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Bar represents OHLCV price and volume data aggregated over one fixed
// time interval. IntervalStart is inclusive, IntervalEnd exclusive.
type Bar struct {
	IntervalStart time.Time       `json:"interval_start" db:"interval_start"`
	IntervalEnd   time.Time       `json:"interval_end" db:"interval_end"`
	Open          decimal.Decimal `json:"open" db:"open"`
	High          decimal.Decimal `json:"high" db:"high"`
	Low           decimal.Decimal `json:"low" db:"low"`
	Close         decimal.Decimal `json:"close" db:"close"`
	Volume        int64           `json:"volume" db:"volume"`
}

// ValidationError represents a bar validation error with field context.
type ValidationError struct {
	Field   string // Field is the name of the field that failed validation
	Message string // Message describes the validation failure
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field %s: %s", e.Field, e.Message)
}

// Validate performs consistency checks on the bar: the interval must be
// well-formed, all prices positive, volume positive, and the OHLC
// relationships must hold (high >= max(open, close), low <= min(open,
// close)). Returns a ValidationError if any check fails.
func (b *Bar) Validate() error {
	if b.IntervalStart.IsZero() {
		return &ValidationError{Field: "interval_start", Message: "interval start cannot be zero"}
	}
	if !b.IntervalEnd.After(b.IntervalStart) {
		return &ValidationError{Field: "interval_end", Message: "interval end must be after interval start"}
	}

	zero := decimal.Zero
	if b.Open.LessThanOrEqual(zero) {
		return &ValidationError{Field: "open", Message: "open price must be greater than 0"}
	}
	if b.High.LessThanOrEqual(zero) {
		return &ValidationError{Field: "high", Message: "high price must be greater than 0"}
	}
	if b.Low.LessThanOrEqual(zero) {
		return &ValidationError{Field: "low", Message: "low price must be greater than 0"}
	}
	if b.Close.LessThanOrEqual(zero) {
		return &ValidationError{Field: "close", Message: "close price must be greater than 0"}
	}

	if b.Volume <= 0 {
		return &ValidationError{Field: "volume", Message: "volume must be greater than 0"}
	}

	maxOpenClose := decimal.Max(b.Open, b.Close)
	if b.High.LessThan(maxOpenClose) {
		return &ValidationError{
			Field:   "high",
			Message: fmt.Sprintf("high price (%s) must be greater than or equal to max(open, close) (%s)", b.High, maxOpenClose),
		}
	}

	minOpenClose := decimal.Min(b.Open, b.Close)
	if b.Low.GreaterThan(minOpenClose) {
		return &ValidationError{
			Field:   "low",
			Message: fmt.Sprintf("low price (%s) must be less than or equal to min(open, close) (%s)", b.Low, minOpenClose),
		}
	}

	return nil
}

// Range returns the total price movement during the interval (High - Low).
func (b *Bar) Range() decimal.Decimal {
	return b.High.Sub(b.Low)
}

// IsBullish reports whether the close price exceeds the open price.
func (b *Bar) IsBullish() bool {
	return b.Close.GreaterThan(b.Open)
}

// String returns a human-readable representation of the bar.
// This method implements the fmt.Stringer interface.
func (b *Bar) String() string {
	return fmt.Sprintf("Bar{Start: %s, O: %s, H: %s, L: %s, C: %s, V: %d}",
		b.IntervalStart.Format(TimestampLayout), b.Open, b.High, b.Low, b.Close, b.Volume)
}
