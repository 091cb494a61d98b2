// Package request provides pure parsing and validation for aggregation
// requests: the interval spec and the time window. Parsing is
// decoupled from any prompting loop; interactive retry is the caller's
// responsibility.
package request

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// InvalidIntervalError is returned when an interval spec does not
// conform to the expected pattern or evaluates to a non-positive
// duration.
type InvalidIntervalError struct {
	Spec   string
	Reason string
}

// Error implements the error interface for InvalidIntervalError.
func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval spec %q: %s", e.Spec, e.Reason)
}

var (
	intervalPattern   = regexp.MustCompile(`^\d+[dhms](\d+[dhms])*$`)
	intervalComponent = regexp.MustCompile(`(\d+)([dhms])`)
)

// unitSeconds maps an interval unit to its length in seconds. The map
// iteration order is irrelevant; ordering is enforced via unitRank.
var unitSeconds = map[string]int64{
	"d": 86400,
	"h": 3600,
	"m": 60,
	"s": 1,
}

// unitRank enforces the required component ordering days -> hours ->
// minutes -> seconds, each unit at most once.
var unitRank = map[string]int{"d": 0, "h": 1, "m": 2, "s": 3}

// ParseInterval parses an interval spec of the form "1d", "1h30m",
// "45s" into a duration. Components must appear in strictly descending
// unit order with no separators, and the total must be positive.
func ParseInterval(spec string) (time.Duration, error) {
	if !intervalPattern.MatchString(spec) {
		return 0, &InvalidIntervalError{Spec: spec, Reason: "must match ^\\d+[dhms](\\d+[dhms])*$"}
	}

	var totalSeconds int64
	lastRank := -1
	for _, m := range intervalComponent.FindAllStringSubmatch(spec, -1) {
		value, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, &InvalidIntervalError{Spec: spec, Reason: "component value out of range"}
		}

		unit := m[2]
		rank := unitRank[unit]
		if rank <= lastRank {
			return 0, &InvalidIntervalError{Spec: spec, Reason: "components must be ordered days, hours, minutes, seconds"}
		}
		lastRank = rank

		totalSeconds += value * unitSeconds[unit]
	}

	if totalSeconds <= 0 {
		return 0, &InvalidIntervalError{Spec: spec, Reason: "interval must be greater than 0 seconds"}
	}

	return time.Duration(totalSeconds) * time.Second, nil
}
