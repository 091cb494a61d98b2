// Package storage defines the optional persistence sink for emitted
// OHLCV bars. The cleaning core itself is stateless between
// invocations; storing aggregation output is an opt-in concern of the
// caller.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// BarStore persists and retrieves aggregated bars.
type BarStore interface {
	// Initialize prepares the backing schema. Must be called before
	// any other operation.
	Initialize(ctx context.Context) error

	// Store persists the bars of one aggregation run. Bars are
	// validated before storage.
	Store(ctx context.Context, runID string, bars []models.Bar) error

	// Query retrieves stored bars matching the request, ordered by
	// interval start ascending.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// Close releases backing resources.
	Close() error
}

// QueryRequest selects stored bars by run and time range.
type QueryRequest struct {
	// RunID restricts results to one aggregation run; empty matches all.
	RunID string

	// Start is the earliest interval start to include (inclusive).
	// Zero means unbounded.
	Start time.Time

	// End is the latest interval start to include (exclusive).
	// Zero means unbounded.
	End time.Time

	// Limit is the maximum number of results to return (0 = no limit).
	Limit int
}

// QueryResponse contains query results and paging metadata.
type QueryResponse struct {
	// Bars contains the query results in interval-start order.
	Bars []models.Bar

	// Total is the total number of matches before Limit was applied.
	Total int
}

// StorageError provides structured context for storage failures.
type StorageError struct {
	// Operation is the storage operation that failed (e.g. "insert", "query").
	Operation string

	// Table is the table involved in the operation.
	Table string

	// Err is the underlying error that caused the failure.
	Err error
}

// Error implements the error interface for StorageError.
func (e *StorageError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("storage operation %s on table %s failed: %v", e.Operation, e.Table, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError with full context.
func NewStorageError(operation, table string, err error) *StorageError {
	return &StorageError{Operation: operation, Table: table, Err: err}
}

// NewInsertError creates a StorageError for insert operations.
func NewInsertError(table string, err error) *StorageError {
	return &StorageError{Operation: "insert", Table: table, Err: err}
}

// NewQueryError creates a StorageError for query operations.
func NewQueryError(table string, err error) *StorageError {
	return &StorageError{Operation: "query", Table: table, Err: err}
}
