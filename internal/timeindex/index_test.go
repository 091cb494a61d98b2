package timeindex

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

var base = time.Date(2024, 9, 19, 9, 30, 0, 0, time.UTC)

func tickAt(offset time.Duration, price string) models.Tick {
	return models.Tick{
		Timestamp: base.Add(offset),
		Price:     decimal.RequireFromString(price),
		Size:      1,
	}
}

func TestNewSortsByTimestamp(t *testing.T) {
	ticks := []models.Tick{
		tickAt(30*time.Second, "102"),
		tickAt(0, "100"),
		tickAt(10*time.Second, "101"),
	}

	ix := New(ticks)
	require.Equal(t, 3, ix.Len())

	sorted := ix.Ticks()
	for i := 1; i < len(sorted); i++ {
		assert.True(t, sorted[i].Timestamp.After(sorted[i-1].Timestamp),
			"sequence must be strictly increasing at index %d", i)
	}

	// The caller's slice is untouched.
	assert.True(t, ticks[0].Price.Equal(decimal.RequireFromString("102")))
}

func TestRange(t *testing.T) {
	ix := New([]models.Tick{
		tickAt(0, "100"),
		tickAt(10*time.Second, "101"),
		tickAt(20*time.Second, "102"),
		tickAt(30*time.Second, "103"),
	})

	t.Run("full coverage", func(t *testing.T) {
		lo, hi, err := ix.Range(base, base.Add(30*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 0, lo)
		assert.Equal(t, 4, hi, "upper bound includes the tick exactly at end")
	})

	t.Run("interior window", func(t *testing.T) {
		lo, hi, err := ix.Range(base.Add(5*time.Second), base.Add(25*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 3, hi)
	})

	t.Run("start exactly on a tick", func(t *testing.T) {
		lo, hi, err := ix.Range(base.Add(10*time.Second), base.Add(20*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 3, hi)
	})

	t.Run("start after end", func(t *testing.T) {
		_, _, err := ix.Range(base.Add(time.Minute), base)
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("window past the last timestamp", func(t *testing.T) {
		_, _, err := ix.Range(base.Add(time.Hour), base.Add(2*time.Hour))
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("window before the first timestamp", func(t *testing.T) {
		_, _, err := ix.Range(base.Add(-time.Hour), base.Add(-time.Minute))
		assert.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestRangeEmptyIndex(t *testing.T) {
	ix := New(nil)
	assert.Equal(t, 0, ix.Len())

	_, ok := ix.Last()
	assert.False(t, ok)

	_, _, err := ix.Range(base, base.Add(time.Minute))
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestSelect(t *testing.T) {
	ix := New([]models.Tick{
		tickAt(0, "100"),
		tickAt(10*time.Second, "101"),
		tickAt(20*time.Second, "102"),
	})

	selected, err := ix.Select(base.Add(5*time.Second), base.Add(20*time.Second))
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.True(t, selected[0].Price.Equal(decimal.RequireFromString("101")))
	assert.True(t, selected[1].Price.Equal(decimal.RequireFromString("102")))
}

func TestLast(t *testing.T) {
	ix := New([]models.Tick{
		tickAt(20*time.Second, "102"),
		tickAt(0, "100"),
	})

	last, ok := ix.Last()
	require.True(t, ok)
	assert.Equal(t, base.Add(20*time.Second), last)
}
