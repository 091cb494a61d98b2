package cleaning

import (
	"errors"
	"log/slog"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// ErrEmptyDataset indicates that no ticks survived cleaning.
// Aggregation cannot proceed on an empty dataset, so this is fatal for
// the pipeline invocation.
var ErrEmptyDataset = errors.New("no valid ticks survived cleaning")

// Stats aggregates per-stage drop counts for one cleaning run. Rows
// are never fatal individually; these counters are the observability
// surface for silent drops.
type Stats struct {
	TotalRows      int `json:"total_rows"`
	MalformedRows  int `json:"malformed_rows"`
	OutlierTicks   int `json:"outlier_ticks"`
	DuplicateTicks int `json:"duplicate_ticks"`
	CleanTicks     int `json:"clean_ticks"`
}

// Result holds the output of one cleaning run: the surviving ticks (in
// input order, not yet sorted), the price bounds that were applied and
// the drop statistics.
type Result struct {
	Ticks  []models.Tick
	Bounds models.PriceBounds
	Stats  Stats
}

// Cleaner runs the cleaning stages over one raw dataset.
type Cleaner struct {
	logger *slog.Logger
}

// NewCleaner creates a cleaner that logs stage summaries to the given
// logger.
func NewCleaner(logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{logger: logger.With("component", "cleaning")}
}

// Clean runs structural validation, outlier filtering and duplicate
// elimination over the raw rows, in that order. Price bounds are
// computed once, over all structurally-valid ticks, before any
// filtering. Returns ErrEmptyDataset if no tick survives.
func (c *Cleaner) Clean(rows []models.RawRow) (*Result, error) {
	stats := Stats{TotalRows: len(rows)}

	valid := make([]models.Tick, 0, len(rows))
	for _, row := range rows {
		tick, err := ParseRow(row)
		if err != nil {
			stats.MalformedRows++
			continue
		}
		valid = append(valid, tick)
	}

	if len(valid) == 0 {
		return nil, ErrEmptyDataset
	}

	bounds, err := ComputeBounds(valid)
	if err != nil {
		return nil, err
	}

	inRange := FilterOutliers(valid, bounds)
	stats.OutlierTicks = len(valid) - len(inRange)

	unique := EliminateDuplicates(inRange)
	stats.DuplicateTicks = len(inRange) - len(unique)
	stats.CleanTicks = len(unique)

	c.logger.Info("cleaning completed",
		"total_rows", stats.TotalRows,
		"malformed_rows", stats.MalformedRows,
		"outlier_ticks", stats.OutlierTicks,
		"duplicate_ticks", stats.DuplicateTicks,
		"clean_ticks", stats.CleanTicks,
		"lower_bound", bounds.Lower,
		"upper_bound", bounds.Upper)

	if len(unique) == 0 {
		return nil, ErrEmptyDataset
	}

	return &Result{Ticks: unique, Bounds: bounds, Stats: stats}, nil
}
