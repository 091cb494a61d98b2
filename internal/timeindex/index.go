// Package timeindex provides a sorted, immutable view over cleaned
// ticks with binary-search range selection. Timestamps are unique
// after duplicate elimination, so ascending timestamp order is a total
// order and no tie-break is needed.
package timeindex

import (
	"errors"
	"sort"
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// ErrOutOfRange indicates that a requested window has no overlap with
// the indexed dataset. It is non-fatal and surfaced to the caller.
var ErrOutOfRange = errors.New("requested window is outside the indexed range")

// Index is an immutable, timestamp-sorted tick sequence. Once built it
// is never mutated, so any number of range queries may run against it
// concurrently without synchronization.
type Index struct {
	ticks []models.Tick
}

// New builds an index from cleaned ticks. The input is copied and
// sorted ascending by timestamp; the caller's slice is not modified.
func New(ticks []models.Tick) *Index {
	sorted := make([]models.Tick, len(ticks))
	copy(sorted, ticks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return &Index{ticks: sorted}
}

// Len returns the number of indexed ticks.
func (ix *Index) Len() int {
	return len(ix.ticks)
}

// Ticks returns the sorted tick sequence. Callers must treat the
// returned slice as read-only.
func (ix *Index) Ticks() []models.Tick {
	return ix.ticks
}

// Last returns the timestamp of the final indexed tick. The second
// return value is false for an empty index.
func (ix *Index) Last() (time.Time, bool) {
	if len(ix.ticks) == 0 {
		return time.Time{}, false
	}
	return ix.ticks[len(ix.ticks)-1].Timestamp, true
}

// Range returns the half-open index range [lo, hi) of ticks with
// start <= timestamp <= end: lo is the first index with timestamp >=
// start (lower bound), hi the first index with timestamp > end (upper
// bound). If the window is degenerate (start after end) or selects no
// ticks, Range returns an empty range and ErrOutOfRange; it never
// panics on empty input.
func (ix *Index) Range(start, end time.Time) (lo, hi int, err error) {
	if start.After(end) || len(ix.ticks) == 0 {
		return 0, 0, ErrOutOfRange
	}

	lo = sort.Search(len(ix.ticks), func(i int) bool {
		return !ix.ticks[i].Timestamp.Before(start)
	})
	hi = sort.Search(len(ix.ticks), func(i int) bool {
		return ix.ticks[i].Timestamp.After(end)
	})

	if lo >= hi {
		return 0, 0, ErrOutOfRange
	}
	return lo, hi, nil
}

// Select returns the ticks with start <= timestamp <= end, in
// ascending timestamp order. The returned slice aliases the index and
// must be treated as read-only. Returns ErrOutOfRange when the window
// selects nothing.
func (ix *Index) Select(start, end time.Time) ([]models.Tick, error) {
	lo, hi, err := ix.Range(start, end)
	if err != nil {
		return nil, err
	}
	return ix.ticks[lo:hi], nil
}
