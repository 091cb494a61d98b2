package cleaning

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		row     models.RawRow
		wantErr bool
	}{
		{
			name: "valid row",
			row:  models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "450.25", Size: "10"},
		},
		{
			name: "valid row with surrounding whitespace",
			row:  models.RawRow{Timestamp: " 2024-09-19 09:30:00.000 ", Price: " 450.25 ", Size: " 10 "},
		},
		{
			name:    "missing timestamp",
			row:     models.RawRow{Timestamp: "", Price: "450.25", Size: "10"},
			wantErr: true,
		},
		{
			name:    "missing price",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "", Size: "10"},
			wantErr: true,
		},
		{
			name:    "missing size",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "450.25", Size: ""},
			wantErr: true,
		},
		{
			name:    "unparseable timestamp",
			row:     models.RawRow{Timestamp: "not-a-time", Price: "450.25", Size: "10"},
			wantErr: true,
		},
		{
			name:    "timestamp without milliseconds",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00", Price: "450.25", Size: "10"},
			wantErr: true,
		},
		{
			name:    "unparseable price",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "abc", Size: "10"},
			wantErr: true,
		},
		{
			name:    "negative price",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "-450.25", Size: "10"},
			wantErr: true,
		},
		{
			name:    "zero price",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "0", Size: "10"},
			wantErr: true,
		},
		{
			name:    "unparseable size",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "450.25", Size: "ten"},
			wantErr: true,
		},
		{
			name:    "fractional size",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "450.25", Size: "1.5"},
			wantErr: true,
		},
		{
			name:    "zero size",
			row:     models.RawRow{Timestamp: "2024-09-19 09:30:00.000", Price: "450.25", Size: "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick, err := ParseRow(tt.row)
			if tt.wantErr {
				require.Error(t, err)
				var rowErr *RowError
				assert.ErrorAs(t, err, &rowErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, time.Date(2024, 9, 19, 9, 30, 0, 0, time.UTC), tick.Timestamp)
			assert.True(t, tick.Price.Equal(decimal.RequireFromString("450.25")))
			assert.Equal(t, int64(10), tick.Size)
		})
	}
}

func TestParseRowDecimalShiftIsStructurallyValid(t *testing.T) {
	// A price shifted by one decimal place parses fine; catching it is
	// the outlier filter's job, not the row validator's.
	tick, err := ParseRow(models.RawRow{
		Timestamp: "2024-09-19 09:30:00.000",
		Price:     "45.025",
		Size:      "10",
	})
	require.NoError(t, err)
	assert.True(t, tick.Price.Equal(decimal.RequireFromString("45.025")))
}
