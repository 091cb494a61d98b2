// Package export serializes emitted OHLCV bars to CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tickdata/go-tick-aggregator/internal/models"
	"github.com/tickdata/go-tick-aggregator/internal/request"
)

// barHeader is the output bar schema: one row per emitted bar.
var barHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

// FileName derives an output file name from the aggregation request,
// e.g. "bars_20240919T093000_1h30m.csv".
func FileName(window request.Window, intervalSpec string) string {
	return fmt.Sprintf("bars_%s_%s.csv",
		window.Start.Format("20060102T150405"), intervalSpec)
}

// CSVWriter writes bar sequences to CSV files under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a writer rooted at the given directory.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger.With("component", "export")}
}

// WriteBars writes the bars to the named file inside the writer's
// directory, creating it as needed. The header row is always written;
// each bar row carries intervalStart, open, high, low, close, volume.
func (w *CSVWriter) WriteBars(name string, bars []models.Bar) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.dir, name)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(barHeader); err != nil {
		return "", fmt.Errorf("failed to write header: %w", err)
	}

	for i, bar := range bars {
		if err := writer.Write(record(bar)); err != nil {
			return "", fmt.Errorf("failed to write bar %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush output file: %w", err)
	}

	w.logger.Info("bars exported", "path", path, "bar_count", len(bars))
	return path, nil
}

// record formats one bar as a CSV record.
func record(bar models.Bar) []string {
	return []string{
		bar.IntervalStart.Format(models.TimestampLayout),
		bar.Open.String(),
		bar.High.String(),
		bar.Low.String(),
		bar.Close.String(),
		strconv.FormatInt(bar.Volume, 10),
	}
}
