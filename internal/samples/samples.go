// Package samples supplies hourly activity data from an external source.
package samples

import (
	"context"
	"time"

	"github.com/verte-zerg/stride/internal/model"
)

// Provider yields the raw hourly samples recorded on a calendar day.
// An empty result means no activity, never an error.
type Provider interface {
	HourlySamples(ctx context.Context, day time.Time) ([]model.RawSample, error)
}

// Static serves samples from memory, keyed by day. Used by tests and
// anywhere the engine should run without touching the filesystem.
type Static struct {
	days map[string][]model.RawSample
}

// NewStatic creates an empty in-memory provider.
func NewStatic() *Static {
	return &Static{days: map[string][]model.RawSample{}}
}

// Add registers a sample on its day.
func (s *Static) Add(sample model.RawSample) {
	key := dayKey(sample.Day)
	sample.Day = model.Day(sample.Day)
	s.days[key] = append(s.days[key], sample)
}

// HourlySamples implements Provider.
func (s *Static) HourlySamples(_ context.Context, day time.Time) ([]model.RawSample, error) {
	out := make([]model.RawSample, len(s.days[dayKey(day)]))
	copy(out, s.days[dayKey(day)])
	return out, nil
}

func dayKey(day time.Time) string {
	return model.Day(day).Format("2006-01-02")
}

// StepsInRange sums the steps and distance reported by p over sample
// hours whose start lies within [start, end).
func StepsInRange(ctx context.Context, p Provider, start, end time.Time) (uint64, float64, error) {
	var steps uint64
	var distance float64
	for day := model.Day(start); day.Before(end); day = day.AddDate(0, 0, 1) {
		recorded, err := p.HourlySamples(ctx, day)
		if err != nil {
			return 0, 0, err
		}
		for _, sample := range recorded {
			hourStart := day.Add(time.Duration(sample.Hour) * time.Hour)
			if hourStart.Before(start.Truncate(time.Hour)) || !hourStart.Before(end) {
				continue
			}
			steps += sample.Steps
			distance += sample.DistanceKm
		}
	}
	return steps, distance, nil
}

// HasActivityInRange reports whether any sample with nonzero steps falls
// within [start, end).
func HasActivityInRange(ctx context.Context, p Provider, start, end time.Time) (bool, error) {
	steps, _, err := StepsInRange(ctx, p, start, end)
	if err != nil {
		return false, err
	}
	return steps > 0, nil
}
