package cleaning

import (
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// EliminateDuplicates removes every tick whose timestamp occurs more
// than once in the input. All ticks sharing a duplicated timestamp are
// dropped, not just the duplicates after the first. In the returned
// slice every timestamp is unique.
func EliminateDuplicates(ticks []models.Tick) []models.Tick {
	counts := make(map[time.Time]int, len(ticks))
	for _, t := range ticks {
		counts[t.Timestamp]++
	}

	kept := make([]models.Tick, 0, len(ticks))
	for _, t := range ticks {
		if counts[t.Timestamp] == 1 {
			kept = append(kept, t)
		}
	}
	return kept
}
