package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// storedBar pairs a bar with the run that produced it.
type storedBar struct {
	runID string
	bar   models.Bar
}

// MemoryStore provides an in-memory BarStore implementation. It uses a
// mutex-guarded slice kept sorted by interval start, suitable for tests
// and single-invocation runs.
type MemoryStore struct {
	mu          sync.RWMutex
	bars        []storedBar
	initialized bool
	closed      bool
}

// NewMemoryStore creates a new in-memory bar store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Initialize implements BarStore.Initialize.
func (m *MemoryStore) Initialize(ctx context.Context) error {
	if ctx.Err() != nil {
		return NewStorageError("initialize", "bars", ctx.Err())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// Store implements BarStore.Store. Each bar is validated before any is
// persisted; a single invalid bar rejects the whole batch.
func (m *MemoryStore) Store(ctx context.Context, runID string, bars []models.Bar) error {
	if ctx.Err() != nil {
		return NewStorageError("insert", "bars", ctx.Err())
	}
	if len(bars) == 0 {
		return nil
	}

	for i, bar := range bars {
		if err := bar.Validate(); err != nil {
			return NewInsertError("bars", fmt.Errorf("bar at index %d failed validation: %w", i, err))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkState(); err != nil {
		return NewInsertError("bars", err)
	}

	for _, bar := range bars {
		m.bars = append(m.bars, storedBar{runID: runID, bar: bar})
	}
	sort.SliceStable(m.bars, func(i, j int) bool {
		return m.bars[i].bar.IntervalStart.Before(m.bars[j].bar.IntervalStart)
	})
	return nil
}

// Query implements BarStore.Query.
func (m *MemoryStore) Query(ctx context.Context, req QueryRequest) (*QueryResponse, error) {
	if ctx.Err() != nil {
		return nil, NewQueryError("bars", ctx.Err())
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.checkState(); err != nil {
		return nil, NewQueryError("bars", err)
	}

	var matched []models.Bar
	for _, sb := range m.bars {
		if req.RunID != "" && sb.runID != req.RunID {
			continue
		}
		if !req.Start.IsZero() && sb.bar.IntervalStart.Before(req.Start) {
			continue
		}
		if !req.End.IsZero() && !sb.bar.IntervalStart.Before(req.End) {
			continue
		}
		matched = append(matched, sb.bar)
	}

	total := len(matched)
	if req.Limit > 0 && len(matched) > req.Limit {
		matched = matched[:req.Limit]
	}

	return &QueryResponse{Bars: matched, Total: total}, nil
}

// Close implements BarStore.Close.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// checkState verifies the store lifecycle. Callers must hold the lock.
func (m *MemoryStore) checkState() error {
	if m.closed {
		return errors.New("store is closed")
	}
	if !m.initialized {
		return errors.New("store is not initialized")
	}
	return nil
}
