package interval

import (
	"errors"
	"testing"
	"time"
)

var base = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func TestNewRejectsBadBounds(t *testing.T) {
	if _, err := New(base, base); !errors.Is(err, ErrInvalid) {
		t.Fatalf("zero-length interval: got %v, want ErrInvalid", err)
	}
	if _, err := New(base, base.Add(-time.Second)); !errors.Is(err, ErrInvalid) {
		t.Fatalf("negative interval: got %v, want ErrInvalid", err)
	}
	if _, err := New(base, base.Add(time.Hour)); err != nil {
		t.Fatalf("valid interval: %v", err)
	}
}

func TestCovers(t *testing.T) {
	bounded, err := New(base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("new interval: %v", err)
	}
	open := Open(base)

	cases := []struct {
		name string
		iv   Interval
		at   time.Time
		want bool
	}{
		{"start inclusive", bounded, base, true},
		{"inside", bounded, base.Add(30 * time.Minute), true},
		{"end exclusive", bounded, base.Add(time.Hour), false},
		{"before start", bounded, base.Add(-time.Nanosecond), false},
		{"open covers start", open, base, true},
		{"open covers far future", open, base.Add(200 * 365 * 24 * time.Hour), true},
		{"open before start", open, base.Add(-time.Second), false},
	}
	for _, tc := range cases {
		if got := tc.iv.Covers(tc.at); got != tc.want {
			t.Errorf("%s: Covers = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	hour := func(h int) Interval {
		iv := Hour(base.Add(time.Duration(h) * time.Hour))
		return iv
	}
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"same hour", hour(0), hour(0), true},
		{"adjacent hours", hour(0), hour(1), false},
		{"disjoint", hour(0), hour(3), false},
		{"contained", Interval{Start: base, End: base.Add(3 * time.Hour)}, hour(1), true},
		{"open vs past hour", Open(base), hour(-2), false},
		{"open vs future hour", Open(base), hour(5), true},
		{"open vs hour at start", Open(base.Add(30 * time.Minute)), hour(0), true},
		{"two open", Open(base), Open(base.Add(time.Hour)), true},
	}
	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := tc.b.Overlaps(tc.a); got != tc.want {
			t.Errorf("%s (reversed): Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestHourAlignment(t *testing.T) {
	iv := Hour(base.Add(25 * time.Minute))
	if !iv.Start.Equal(base) {
		t.Fatalf("hour start = %v, want %v", iv.Start, base)
	}
	if !iv.End.Equal(base.Add(time.Hour)) {
		t.Fatalf("hour end = %v, want %v", iv.End, base.Add(time.Hour))
	}
}
