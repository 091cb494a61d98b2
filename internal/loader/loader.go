// Package loader reads raw tick rows from a directory of CSV source
// files. Files are read concurrently by a bounded worker pool and
// merged into one unordered collection; the cleaning core sorts
// internally, so no ordering is imposed here.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// Config controls loader concurrency and throttling.
type Config struct {
	// Workers bounds the number of files read concurrently.
	Workers int

	// FilesPerSecond throttles file opens; zero disables throttling.
	FilesPerSecond int

	// MaxRetries bounds retry attempts for transient read failures.
	MaxRetries uint64
}

// DefaultConfig returns loader defaults suitable for local directories.
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		MaxRetries: 3,
	}
}

// Loader reads and merges raw rows from every CSV file in a directory.
type Loader struct {
	dir     string
	config  Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a loader for the given directory.
func New(dir string, config Config, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}

	var limiter *rate.Limiter
	if config.FilesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.FilesPerSecond), 1)
	}

	return &Loader{
		dir:     dir,
		config:  config,
		limiter: limiter,
		logger:  logger.With("component", "loader"),
	}
}

// Load reads every *.csv file under the loader's directory and returns
// the merged, unordered raw rows. Each file's header line is skipped
// and only three-field records are kept. An unreadable file is logged
// and skipped after retries; only a missing directory is fatal.
func (l *Loader) Load(ctx context.Context) ([]models.RawRow, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory %s: %w", l.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}
		files = append(files, filepath.Join(l.dir, entry.Name()))
	}

	l.logger.Info("loading source files", "dir", l.dir, "file_count", len(files))

	var (
		mu   sync.Mutex
		rows []models.RawRow
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)

	for _, file := range files {
		file := file
		g.Go(func() error {
			if l.limiter != nil {
				if err := l.limiter.Wait(ctx); err != nil {
					return err
				}
			}

			fileRows, err := l.readFile(ctx, file)
			if err != nil {
				// A single unreadable file does not abort the load.
				l.logger.Warn("skipping unreadable file", "file", file, "error", err)
				return nil
			}

			mu.Lock()
			rows = append(rows, fileRows...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	l.logger.Info("source files loaded", "row_count", len(rows))
	return rows, nil
}

// readFile parses one CSV file into raw rows, retrying transient
// failures with exponential backoff. A missing file is permanent and
// fails immediately.
func (l *Loader) readFile(ctx context.Context, path string) ([]models.RawRow, error) {
	var rows []models.RawRow

	operation := func() error {
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		defer file.Close()

		rows, err = parseRows(file)
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(), l.config.MaxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return rows, nil
}

// newBackOff returns the retry policy for a single file read.
func newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return b
}

// parseRows reads CSV records from r, skipping the header line and any
// record without exactly three fields. Field-level validation is the
// cleaning stage's job; the loader only preserves the raw strings.
func parseRows(r io.Reader) ([]models.RawRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []models.RawRow
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) != 3 {
			continue
		}
		rows = append(rows, models.RawRow{
			Timestamp: strings.TrimSpace(record[0]),
			Price:     strings.TrimSpace(record[1]),
			Size:      strings.TrimSpace(record[2]),
		})
	}
	return rows, nil
}
