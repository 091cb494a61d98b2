// Package pipeline composes the cleaning stages and the time index
// into an immutable Dataset value, constructed once per invocation and
// queried many times. There is no global mutable state: every stage
// receives the data as an argument and returns a new value.
package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tickdata/go-tick-aggregator/internal/aggregate"
	"github.com/tickdata/go-tick-aggregator/internal/cleaning"
	"github.com/tickdata/go-tick-aggregator/internal/models"
	"github.com/tickdata/go-tick-aggregator/internal/request"
	"github.com/tickdata/go-tick-aggregator/internal/timeindex"
)

// Dataset is the cleaned, sorted, immutable tick collection for one
// pipeline invocation. It may be queried by multiple range requests
// without additional synchronization, since no query mutates it.
type Dataset struct {
	runID   string
	index   *timeindex.Index
	bounds  models.PriceBounds
	stats   cleaning.Stats
	session request.Session
	logger  *slog.Logger
}

// Build cleans the raw rows and indexes the survivors. Each build is
// tagged with a run ID for log correlation. Returns
// cleaning.ErrEmptyDataset when no tick survives cleaning.
func Build(rows []models.RawRow, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.New().String()
	logger = logger.With("run_id", runID)

	result, err := cleaning.NewCleaner(logger).Clean(rows)
	if err != nil {
		return nil, fmt.Errorf("cleaning failed: %w", err)
	}

	index := timeindex.New(result.Ticks)
	last, _ := index.Last()
	logger.Info("dataset built",
		"tick_count", index.Len(),
		"last_timestamp", last.Format(models.TimestampLayout))

	return &Dataset{
		runID:   runID,
		index:   index,
		bounds:  result.Bounds,
		stats:   result.Stats,
		session: request.DefaultSession(),
		logger:  logger,
	}, nil
}

// WithSession returns a copy of the dataset that validates windows
// against the given trading session.
func (d *Dataset) WithSession(session request.Session) *Dataset {
	copied := *d
	copied.session = session
	return &copied
}

// RunID returns the identifier assigned to this build.
func (d *Dataset) RunID() string {
	return d.runID
}

// Bounds returns the price bounds applied during cleaning.
func (d *Dataset) Bounds() models.PriceBounds {
	return d.bounds
}

// Stats returns the cleaning drop counters.
func (d *Dataset) Stats() cleaning.Stats {
	return d.stats
}

// Len returns the number of cleaned ticks.
func (d *Dataset) Len() int {
	return d.index.Len()
}

// Ticks returns the cleaned, sorted tick sequence. Callers must treat
// the returned slice as read-only.
func (d *Dataset) Ticks() []models.Tick {
	return d.index.Ticks()
}

// Last returns the timestamp of the final cleaned tick.
func (d *Dataset) Last() (time.Time, bool) {
	return d.index.Last()
}

// Aggregate validates the window against the trading session and the
// dataset's coverage, selects the matching tick range and reduces it
// into OHLCV bars of the given interval.
//
// Returns request.InvalidWindowError for windows that violate the
// boundary constraints and timeindex.ErrOutOfRange for windows with no
// overlapping ticks; both are non-fatal.
func (d *Dataset) Aggregate(window request.Window, interval time.Duration) ([]models.Bar, error) {
	last, ok := d.index.Last()
	if !ok {
		return nil, timeindex.ErrOutOfRange
	}

	if err := window.Validate(d.session, last); err != nil {
		return nil, err
	}

	selected, err := d.index.Select(window.Start, window.End)
	if err != nil {
		return nil, err
	}

	bars, err := aggregate.Bars(selected, window.Start, window.End, interval)
	if err != nil {
		return nil, err
	}

	d.logger.Info("aggregation completed",
		"window_start", window.Start.Format(models.TimestampLayout),
		"window_end", window.End.Format(models.TimestampLayout),
		"interval", interval.String(),
		"selected_ticks", len(selected),
		"bar_count", len(bars))

	return bars, nil
}
