package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/stride/internal/interval"
	"github.com/verte-zerg/stride/internal/model"
	"github.com/verte-zerg/stride/internal/samples"
	"github.com/verte-zerg/stride/internal/store"
)

// AttributeHour assigns ownership of the hour containing t to the shoe.
// Conflicting sessions and attributions over that hour are removed
// first; the raw sample's steps and distance are snapshotted into the
// new record.
func (e *Engine) AttributeHour(ctx context.Context, t time.Time, shoeID int64) error {
	return e.AttributeHours(ctx, []time.Time{t}, shoeID)
}

// AttributeHours assigns every listed hour to the shoe as one atomic
// batch: either all hours are attributed or none are. Cancellation is
// honored between hours and rolls the whole batch back.
func (e *Engine) AttributeHours(ctx context.Context, hours []time.Time, shoeID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	normalized := normalizeHours(hours)
	if len(normalized) == 0 {
		return nil
	}
	lookup := newSampleLookup(e.samples)
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		shoe, err := tx.GetShoe(ctx, shoeID)
		if err != nil {
			return fmt.Errorf("failed to load shoe: %w", err)
		}
		if shoe == nil {
			return ErrUnknownShoe
		}
		if shoe.Archived {
			return ErrShoeArchived
		}
		for _, hour := range normalized {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := resolveConflicts(ctx, tx, interval.Hour(hour)); err != nil {
				return err
			}
			steps, distance, err := lookup.at(ctx, hour)
			if err != nil {
				return err
			}
			if _, err := tx.InsertAttribution(ctx, model.HourAttribution{
				ShoeID:     shoeID,
				Hour:       hour,
				Steps:      steps,
				DistanceKm: distance,
			}); err != nil {
				return fmt.Errorf("failed to insert attribution: %w", err)
			}
		}
		return nil
	})
}

// RemoveAttribution clears the explicit attribution for the hour
// containing t, if one exists.
func (e *Engine) RemoveAttribution(ctx context.Context, t time.Time) error {
	return e.RemoveAttributions(ctx, []time.Time{t})
}

// RemoveAttributions clears the listed hours as one atomic batch.
func (e *Engine) RemoveAttributions(ctx context.Context, hours []time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	normalized := normalizeHours(hours)
	if len(normalized) == 0 {
		return nil
	}
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		for _, hour := range normalized {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := tx.DeleteAttribution(ctx, hour); err != nil {
				return fmt.Errorf("failed to delete attribution: %w", err)
			}
		}
		return nil
	})
}

// normalizeHours truncates to hour boundaries and drops duplicates,
// preserving order.
func normalizeHours(hours []time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(hours))
	out := make([]time.Time, 0, len(hours))
	for _, t := range hours {
		hour := model.HourFloor(t)
		if _, ok := seen[hour]; ok {
			continue
		}
		seen[hour] = struct{}{}
		out = append(out, hour)
	}
	return out
}

// sampleLookup caches one provider call per day while a batch runs.
type sampleLookup struct {
	provider samples.Provider
	days     map[time.Time]map[int]model.RawSample
}

func newSampleLookup(provider samples.Provider) *sampleLookup {
	return &sampleLookup{provider: provider, days: map[time.Time]map[int]model.RawSample{}}
}

func (l *sampleLookup) at(ctx context.Context, hour time.Time) (uint64, float64, error) {
	day := model.Day(hour)
	byHour, ok := l.days[day]
	if !ok {
		recorded, err := l.provider.HourlySamples(ctx, day)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to fetch samples: %w", err)
		}
		byHour = make(map[int]model.RawSample, len(recorded))
		for _, sample := range recorded {
			byHour[sample.Hour] = sample
		}
		l.days[day] = byHour
	}
	sample := byHour[hour.Hour()]
	return sample.Steps, sample.DistanceKm, nil
}
