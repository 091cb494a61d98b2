package cleaning

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

func ticksWithPrices(t *testing.T, prices ...string) []models.Tick {
	t.Helper()
	base := time.Date(2024, 9, 19, 9, 30, 0, 0, time.UTC)
	ticks := make([]models.Tick, len(prices))
	for i, p := range prices {
		ticks[i] = models.Tick{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Price:     decimal.RequireFromString(p),
			Size:      1,
		}
	}
	return ticks
}

func TestComputeBounds(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ComputeBounds(nil)
		assert.ErrorIs(t, err, ErrNoPrices)
	})

	t.Run("single price collapses to that price", func(t *testing.T) {
		bounds, err := ComputeBounds(ticksWithPrices(t, "100"))
		require.NoError(t, err)
		assert.True(t, bounds.Lower.Equal(decimal.RequireFromString("100")))
		assert.True(t, bounds.Upper.Equal(decimal.RequireFromString("100")))
	})

	t.Run("interpolated quartiles", func(t *testing.T) {
		// Sorted prices [10, 11, 12, 13, 1000]: Q1 = 11, Q3 = 13,
		// IQR = 2, bounds [8, 16].
		bounds, err := ComputeBounds(ticksWithPrices(t, "10", "12", "11", "13", "1000"))
		require.NoError(t, err)
		assert.True(t, bounds.Lower.Equal(decimal.RequireFromString("8")), "lower = %s", bounds.Lower)
		assert.True(t, bounds.Upper.Equal(decimal.RequireFromString("16")), "upper = %s", bounds.Upper)
	})

	t.Run("interpolation between ranks", func(t *testing.T) {
		// Sorted prices [10, 20, 30, 40]: Q1 rank 0.75 -> 17.5,
		// Q3 rank 2.25 -> 37.5, IQR = 20, bounds [-12.5, 67.5].
		bounds, err := ComputeBounds(ticksWithPrices(t, "40", "10", "30", "20"))
		require.NoError(t, err)
		assert.True(t, bounds.Lower.Equal(decimal.RequireFromString("-12.5")), "lower = %s", bounds.Lower)
		assert.True(t, bounds.Upper.Equal(decimal.RequireFromString("67.5")), "upper = %s", bounds.Upper)
	})
}

func TestFilterOutliers(t *testing.T) {
	ticks := ticksWithPrices(t, "10", "12", "11", "13", "1000")
	bounds, err := ComputeBounds(ticks)
	require.NoError(t, err)

	kept := FilterOutliers(ticks, bounds)
	require.Len(t, kept, 4)
	for _, tick := range kept {
		assert.True(t, bounds.Contains(tick.Price),
			"price %s outside bounds %s", tick.Price, bounds)
	}

	// The min and max surviving prices both lie within the bounds.
	min, max := kept[0].Price, kept[0].Price
	for _, tick := range kept[1:] {
		if tick.Price.LessThan(min) {
			min = tick.Price
		}
		if tick.Price.GreaterThan(max) {
			max = tick.Price
		}
	}
	assert.True(t, bounds.Contains(min))
	assert.True(t, bounds.Contains(max))
}

func TestFilterOutliersBoundsAreInclusive(t *testing.T) {
	ticks := ticksWithPrices(t, "8", "16")
	bounds := models.PriceBounds{
		Lower: decimal.RequireFromString("8"),
		Upper: decimal.RequireFromString("16"),
	}
	kept := FilterOutliers(ticks, bounds)
	assert.Len(t, kept, 2, "boundary prices must survive")
}

func TestComputeBoundsIsOrderIndependent(t *testing.T) {
	prices := []string{"42", "40", "41", "43", "39", "400", "4.1"}
	forward, err := ComputeBounds(ticksWithPrices(t, prices...))
	require.NoError(t, err)

	reversed := make([]string, len(prices))
	for i, p := range prices {
		reversed[len(prices)-1-i] = p
	}
	backward, err := ComputeBounds(ticksWithPrices(t, reversed...))
	require.NoError(t, err)

	assert.True(t, forward.Lower.Equal(backward.Lower), fmt.Sprintf("%s != %s", forward.Lower, backward.Lower))
	assert.True(t, forward.Upper.Equal(backward.Upper), fmt.Sprintf("%s != %s", forward.Upper, backward.Upper))
}
