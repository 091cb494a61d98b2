package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"
	"github.com/shopspring/decimal"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// DuckDBStore implements BarStore on DuckDB, giving aggregation runs a
// queryable analytical sink. The dbPath can be ":memory:" or a file
// path for persistent storage.
type DuckDBStore struct {
	db     *sql.DB
	dbPath string
	logger *slog.Logger
}

// NewDuckDBStore opens a DuckDB-backed bar store.
func NewDuckDBStore(dbPath string, logger *slog.Logger) (*DuckDBStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, NewStorageError("open", "", fmt.Errorf("failed to open DuckDB database: %w", err))
	}

	// Single writer pattern as recommended for DuckDB.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return &DuckDBStore{
		db:     db,
		dbPath: dbPath,
		logger: logger.With("component", "duckdb_store"),
	}, nil
}

// Initialize implements BarStore.Initialize. Creates the bars table
// with OHLC consistency constraints.
func (d *DuckDBStore) Initialize(ctx context.Context) error {
	d.logger.Info("initializing DuckDB bar store", "db_path", d.dbPath)

	query := `
	CREATE TABLE IF NOT EXISTS bars (
		run_id VARCHAR NOT NULL,
		interval_start TIMESTAMP NOT NULL,
		interval_end TIMESTAMP NOT NULL,
		open DOUBLE NOT NULL,
		high DOUBLE NOT NULL,
		low DOUBLE NOT NULL,
		close DOUBLE NOT NULL,
		volume BIGINT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT bars_pk PRIMARY KEY (run_id, interval_start),
		CONSTRAINT bars_time_order CHECK (interval_end > interval_start),
		CONSTRAINT bars_ohlc_valid CHECK (high >= open AND high >= close AND low <= open AND low <= close),
		CONSTRAINT bars_prices_positive CHECK (open > 0 AND high > 0 AND low > 0 AND close > 0),
		CONSTRAINT bars_volume_positive CHECK (volume > 0)
	)`

	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return NewStorageError("initialize", "bars", fmt.Errorf("failed to create bars table: %w", err))
	}

	index := "CREATE INDEX IF NOT EXISTS idx_bars_interval_start ON bars (interval_start)"
	if _, err := d.db.ExecContext(ctx, index); err != nil {
		return NewStorageError("initialize", "bars", fmt.Errorf("failed to create index: %w", err))
	}

	return nil
}

// Store implements BarStore.Store. Bars are validated first, then
// inserted in one transaction.
func (d *DuckDBStore) Store(ctx context.Context, runID string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return NewInsertError("bars", fmt.Errorf("bar at index %d failed validation: %w", i, err))
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return NewInsertError("bars", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bars (run_id, interval_start, interval_end, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return NewInsertError("bars", fmt.Errorf("failed to prepare insert: %w", err))
	}
	defer stmt.Close()

	for _, bar := range bars {
		_, err := stmt.ExecContext(ctx,
			runID,
			bar.IntervalStart,
			bar.IntervalEnd,
			bar.Open.InexactFloat64(),
			bar.High.InexactFloat64(),
			bar.Low.InexactFloat64(),
			bar.Close.InexactFloat64(),
			bar.Volume,
		)
		if err != nil {
			return NewInsertError("bars", fmt.Errorf("failed to insert bar at %s: %w",
				bar.IntervalStart.Format(models.TimestampLayout), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return NewInsertError("bars", fmt.Errorf("failed to commit transaction: %w", err))
	}

	d.logger.Info("bars stored", "run_id", runID, "bar_count", len(bars))
	return nil
}

// Query implements BarStore.Query.
func (d *DuckDBStore) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	query := `
		SELECT interval_start, interval_end, open, high, low, close, volume
		FROM bars WHERE 1=1`
	var args []interface{}

	if req.RunID != "" {
		query += " AND run_id = ?"
		args = append(args, req.RunID)
	}
	if !req.Start.IsZero() {
		query += " AND interval_start >= ?"
		args = append(args, req.Start)
	}
	if !req.End.IsZero() {
		query += " AND interval_start < ?"
		args = append(args, req.End)
	}
	query += " ORDER BY interval_start ASC"
	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", req.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewQueryError("bars", fmt.Errorf("failed to query bars: %w", err))
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var (
			intervalStart, intervalEnd time.Time
			open, high, low, closeP    float64
			volume                     int64
		)
		if err := rows.Scan(&intervalStart, &intervalEnd, &open, &high, &low, &closeP, &volume); err != nil {
			return nil, NewQueryError("bars", fmt.Errorf("failed to scan bar: %w", err))
		}
		bars = append(bars, models.Bar{
			IntervalStart: intervalStart,
			IntervalEnd:   intervalEnd,
			Open:          decimal.NewFromFloat(open),
			High:          decimal.NewFromFloat(high),
			Low:           decimal.NewFromFloat(low),
			Close:         decimal.NewFromFloat(closeP),
			Volume:        volume,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("bars", fmt.Errorf("row iteration failed: %w", err))
	}

	return &QueryResponse{Bars: bars, Total: len(bars)}, nil
}

// Close implements BarStore.Close.
func (d *DuckDBStore) Close() error {
	return d.db.Close()
}
