package request

import (
	"fmt"
	"time"

	"github.com/tickdata/go-tick-aggregator/internal/models"
)

// InvalidWindowError is returned when a requested time window violates
// the boundary constraints: ordering, dataset coverage or the trading
// session.
type InvalidWindowError struct {
	Reason string
}

// Error implements the error interface for InvalidWindowError.
func (e *InvalidWindowError) Error() string {
	return "invalid window: " + e.Reason
}

// Window is a millisecond-precise aggregation request range.
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow parses the start and end instants in the millisecond
// wire format. Ordering and session constraints are checked separately
// by Validate.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(models.TimestampLayout, start)
	if err != nil {
		return Window{}, &InvalidWindowError{Reason: fmt.Sprintf("unparseable start time %q", start)}
	}
	e, err := time.Parse(models.TimestampLayout, end)
	if err != nil {
		return Window{}, &InvalidWindowError{Reason: fmt.Sprintf("unparseable end time %q", end)}
	}
	return Window{Start: s, End: e}, nil
}

// Session is the fixed daily trading window within which aggregation
// requests must fall. Open and Close are offsets from midnight in the
// reference location; both ends are inclusive.
type Session struct {
	Open     time.Duration
	Close    time.Duration
	Location *time.Location
}

// DefaultSession returns the 09:30-16:00 trading session in the fixed
// reference timezone.
func DefaultSession() Session {
	return Session{
		Open:     9*time.Hour + 30*time.Minute,
		Close:    16 * time.Hour,
		Location: time.UTC,
	}
}

// Contains reports whether the instant's time of day falls within the
// session, both ends inclusive.
func (s Session) Contains(t time.Time) bool {
	local := t.In(s.Location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location)
	offset := local.Sub(midnight)
	return offset >= s.Open && offset <= s.Close
}

// Validate enforces the boundary constraints on the window: start must
// precede end, end must not exceed the last timestamp of the cleaned
// dataset, and both instants must fall within the trading session.
func (w Window) Validate(session Session, last time.Time) error {
	if !w.Start.Before(w.End) {
		return &InvalidWindowError{Reason: "start time must be before end time"}
	}
	if w.End.After(last) {
		return &InvalidWindowError{Reason: fmt.Sprintf(
			"end time must be within available data range (last timestamp %s)",
			last.Format(models.TimestampLayout))}
	}
	if !session.Contains(w.Start) {
		return &InvalidWindowError{Reason: "start time is outside the trading session"}
	}
	if !session.Contains(w.End) {
		return &InvalidWindowError{Reason: "end time is outside the trading session"}
	}
	return nil
}
