// Package aggregate reduces a sorted tick range into fixed-interval
// OHLCV bars.
package aggregate

import (
	"errors"
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// ErrInvalidInterval indicates a non-positive bucketing interval.
// Interval specs are rejected at the request boundary before bucketing
// begins; this guards direct callers.
var ErrInvalidInterval = errors.New("bucketing interval must be positive")

// Bars partitions [start, end) into fixed-width intervals and reduces
// each into one OHLCV bar. The ticks must be sorted ascending by
// timestamp, as produced by a time index selection.
//
// Starting at intervalStart = start, each bucket consumes the ticks
// with intervalStart <= timestamp < intervalStart+interval in order:
// open is the first consumed price, close the last, high/low the
// extrema, volume the sum of sizes. Intervals containing zero ticks
// emit no bar. The loop terminates because intervalStart strictly
// increases by a fixed positive duration until it reaches end or the
// ticks are exhausted.
func Bars(ticks []models.Tick, start, end time.Time, interval time.Duration) ([]models.Bar, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	bars := make([]models.Bar, 0)
	i := 0
	for intervalStart := start; intervalStart.Before(end) && i < len(ticks); {
		intervalEnd := intervalStart.Add(interval)

		first := i
		for i < len(ticks) && ticks[i].Timestamp.Before(intervalEnd) {
			i++
		}

		if i > first {
			bars = append(bars, reduce(ticks[first:i], intervalStart, intervalEnd))
		}

		intervalStart = intervalEnd
	}

	return bars, nil
}

// reduce folds one non-empty bucket of timestamp-ordered ticks into a
// bar.
func reduce(bucket []models.Tick, intervalStart, intervalEnd time.Time) models.Bar {
	bar := models.Bar{
		IntervalStart: intervalStart,
		IntervalEnd:   intervalEnd,
		Open:          bucket[0].Price,
		High:          bucket[0].Price,
		Low:           bucket[0].Price,
		Close:         bucket[len(bucket)-1].Price,
	}

	for _, t := range bucket {
		if t.Price.GreaterThan(bar.High) {
			bar.High = t.Price
		}
		if t.Price.LessThan(bar.Low) {
			bar.Low = t.Price
		}
		bar.Volume += t.Size
	}

	return bar
}
