package cleaning

import (
	"errors"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// ErrNoPrices indicates that bounds were requested for a dataset with
// no structurally-valid prices.
var ErrNoPrices = errors.New("cannot compute price bounds: no valid prices")

// iqrMultiplier is the Tukey fence factor applied to the interquartile
// range when deriving the outlier bounds.
var iqrMultiplier = decimal.NewFromFloat(1.5)

// ComputeBounds derives the acceptable price range from the
// distribution of the given ticks' prices: Q1 - 1.5*IQR and
// Q3 + 1.5*IQR, where IQR = Q3 - Q1. Quartiles are computed with
// linear interpolation between ranks over the sorted price slice.
//
// Bounds must be computed exactly once per dataset, over every
// structurally-valid tick, before any filtering: a per-batch
// computation would make the result order-dependent.
func ComputeBounds(ticks []models.Tick) (models.PriceBounds, error) {
	if len(ticks) == 0 {
		return models.PriceBounds{}, ErrNoPrices
	}

	prices := make([]decimal.Decimal, len(ticks))
	for i, t := range ticks {
		prices[i] = t.Price
	}
	sort.Slice(prices, func(i, j int) bool {
		return prices[i].LessThan(prices[j])
	})

	q1 := quartile(prices, 0.25)
	q3 := quartile(prices, 0.75)
	iqr := q3.Sub(q1)
	fence := iqr.Mul(iqrMultiplier)

	return models.PriceBounds{
		Lower: q1.Sub(fence),
		Upper: q3.Add(fence),
	}, nil
}

// quartile returns the p-th quantile of the sorted price slice using
// linear interpolation between ranks: rank = p * (n - 1).
func quartile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := decimal.NewFromFloat(rank - float64(lo))
	return sorted[lo].Add(sorted[hi].Sub(sorted[lo]).Mul(frac))
}

// FilterOutliers applies the bounds to every tick and returns those
// whose price lies within [Lower, Upper]. After filtering, the minimum
// and maximum surviving prices are both within the bounds.
func FilterOutliers(ticks []models.Tick, bounds models.PriceBounds) []models.Tick {
	kept := make([]models.Tick, 0, len(ticks))
	for _, t := range ticks {
		if bounds.Contains(t.Price) {
			kept = append(kept, t)
		}
	}
	return kept
}
