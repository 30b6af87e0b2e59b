// Package interval provides half-open time intervals.
package interval

import (
	"errors"
	"time"
)

// ErrInvalid reports a malformed interval (end not after start).
var ErrInvalid = errors.New("invalid interval")

// Interval is a half-open time range [Start, End). A zero End means the
// interval is open, i.e. extends to the far future.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New builds a bounded interval. End must be strictly after Start.
func New(start, end time.Time) (Interval, error) {
	if !end.After(start) {
		return Interval{}, ErrInvalid
	}
	return Interval{Start: start, End: end}, nil
}

// Open builds an interval with no end.
func Open(start time.Time) Interval {
	return Interval{Start: start}
}

// Hour builds the one-hour interval starting at the hour containing t.
func Hour(t time.Time) Interval {
	start := t.UTC().Truncate(time.Hour)
	return Interval{Start: start, End: start.Add(time.Hour)}
}

// IsOpen reports whether the interval has no end.
func (iv Interval) IsOpen() bool {
	return iv.End.IsZero()
}

// Covers reports whether t lies within [Start, End). An open end covers
// every instant at or after Start.
func (iv Interval) Covers(t time.Time) bool {
	if t.Before(iv.Start) {
		return false
	}
	return iv.IsOpen() || t.Before(iv.End)
}

// Overlaps reports whether the two intervals share any instant. Open
// ends behave as if they ended in the far future.
func (iv Interval) Overlaps(o Interval) bool {
	aBeforeBEnd := o.IsOpen() || iv.Start.Before(o.End)
	bBeforeAEnd := iv.IsOpen() || o.Start.Before(iv.End)
	return aBeforeBEnd && bBeforeAEnd
}
