// Package model defines shared data structures.
package model

import "time"

// Shoe is a tracked piece of equipment that can own activity hours.
type Shoe struct {
	ID                int64
	Name              string
	Archived          bool
	IsDefault         bool
	InactivityTimeout time.Duration
}

// Session records one wearing interval for a shoe. A nil EndedAt means
// the session is still open.
type Session struct {
	ID          int64
	ShoeID      int64
	StartedAt   time.Time
	EndedAt     *time.Time
	AutoStarted bool
	AutoClosed  bool
	Steps       uint64
	DistanceKm  float64
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.EndedAt == nil
}

// HourAttribution is an explicit hour-level ownership override. Hour is
// truncated to the hour boundary; Steps and DistanceKm are snapshots of
// the raw sample at attribution time.
type HourAttribution struct {
	ID         int64
	ShoeID     int64
	Hour       time.Time
	Steps      uint64
	DistanceKm float64
}

// RawSample is one hour of external activity data for a day.
type RawSample struct {
	Hour       int
	Day        time.Time
	Steps      uint64
	DistanceKm float64
}

// AttributedHour is the reconciliation output for one hour: measured
// activity plus the owning shoe, if any. Never persisted.
type AttributedHour struct {
	Hour       int
	Day        time.Time
	Steps      uint64
	DistanceKm float64
	ShoeID     *int64
	ShoeName   string
}

// Owned reports whether the hour has an owner.
func (h AttributedHour) Owned() bool {
	return h.ShoeID != nil
}

// HourStart returns the instant the attributed hour begins.
func (h AttributedHour) HourStart() time.Time {
	return Day(h.Day).Add(time.Duration(h.Hour) * time.Hour)
}

// Day normalizes t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// HourFloor normalizes t to its hour boundary in UTC.
func HourFloor(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}
