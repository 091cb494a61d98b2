// Package cleaning implements the tick cleaning stages: structural row
// validation, IQR-based outlier rejection and duplicate-timestamp
// elimination. The stages are pure functions over fully materialized
// slices; Cleaner composes them into a single pass over one dataset.
package cleaning

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// ParseRow validates one raw row structurally and converts it to a
// Tick. A row is accepted only if all three fields are present, the
// timestamp parses in the millisecond wire format, the price parses as
// a decimal strictly greater than zero, and the size parses as an
// integer strictly greater than zero.
//
// Decimal-point corruption (a price shifted by one decimal place) is
// deliberately not caught here: such a value is structurally valid and
// is rejected downstream by the outlier filter.
func ParseRow(row models.RawRow) (models.Tick, error) {
	tsStr := strings.TrimSpace(row.Timestamp)
	priceStr := strings.TrimSpace(row.Price)
	sizeStr := strings.TrimSpace(row.Size)

	if tsStr == "" || priceStr == "" || sizeStr == "" {
		return models.Tick{}, &RowError{Row: row, Reason: "missing field"}
	}

	timestamp, err := time.Parse(models.TimestampLayout, tsStr)
	if err != nil {
		return models.Tick{}, &RowError{Row: row, Reason: "unparseable timestamp", Err: err}
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return models.Tick{}, &RowError{Row: row, Reason: "unparseable price", Err: err}
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return models.Tick{}, &RowError{Row: row, Reason: "non-positive price"}
	}

	size, err := strconv.ParseInt(sizeStr, 10, 64)
	if err != nil {
		return models.Tick{}, &RowError{Row: row, Reason: "unparseable size", Err: err}
	}
	if size <= 0 {
		return models.Tick{}, &RowError{Row: row, Reason: "non-positive size"}
	}

	return models.Tick{Timestamp: timestamp, Price: price, Size: size}, nil
}

// RowError describes why a single raw row failed structural validation.
// Row errors are never fatal; the offending row is dropped and counted.
type RowError struct {
	Row    models.RawRow
	Reason string
	Err    error
}

// Error implements the error interface for RowError.
func (e *RowError) Error() string {
	if e.Err != nil {
		return "malformed row (" + e.Reason + "): " + e.Err.Error()
	}
	return "malformed row (" + e.Reason + ")"
}

// Unwrap returns the underlying parse error, if any.
func (e *RowError) Unwrap() error {
	return e.Err
}
