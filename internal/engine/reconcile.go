package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/stride/internal/interval"
	"github.com/verte-zerg/stride/internal/model"
)

// ReconciledHours merges the day's raw samples, explicit attributions,
// and session coverage into one ownership row per hour. Priority per
// hour: explicit attribution, then a covering session, then unowned.
// Steps and distance always come from the raw sample; ownership never
// changes measured volume. The result is a view, recomputed per call.
func (e *Engine) ReconciledHours(ctx context.Context, day time.Time) ([]model.AttributedHour, error) {
	dayStart := model.Day(day)
	dayEnd := dayStart.Add(24 * time.Hour)

	recorded, err := e.samples.HourlySamples(ctx, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch samples: %w", err)
	}
	byHour := make(map[int]model.RawSample, len(recorded))
	for _, sample := range recorded {
		byHour[sample.Hour] = sample
	}

	attrs, err := e.store.AttributionsInRange(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load attributions: %w", err)
	}
	attrByHour := make(map[int]model.HourAttribution, len(attrs))
	for _, attr := range attrs {
		attrByHour[int(attr.Hour.Sub(dayStart)/time.Hour)] = attr
	}

	sessions, err := e.store.SessionsOverlapping(ctx, interval.Interval{Start: dayStart, End: dayEnd})
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	names, err := e.shoeNames(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.AttributedHour, 0, 24)
	for hour := 0; hour < 24; hour++ {
		row := model.AttributedHour{Hour: hour, Day: dayStart}
		if sample, ok := byHour[hour]; ok {
			row.Steps = sample.Steps
			row.DistanceKm = sample.DistanceKm
		}
		hourStart := dayStart.Add(time.Duration(hour) * time.Hour)
		if attr, ok := attrByHour[hour]; ok {
			shoeID := attr.ShoeID
			row.ShoeID = &shoeID
		} else if owner := coveringSession(sessions, hourStart); owner != nil {
			shoeID := owner.ShoeID
			row.ShoeID = &shoeID
		}
		if row.ShoeID != nil {
			row.ShoeName = names[*row.ShoeID]
		}
		out = append(out, row)
	}
	return out, nil
}

// coveringSession returns the most recently started session covering the
// instant, or nil.
func coveringSession(sessions []model.Session, at time.Time) *model.Session {
	for i := len(sessions) - 1; i >= 0; i-- {
		iv := interval.Interval{Start: sessions[i].StartedAt}
		if sessions[i].EndedAt != nil {
			iv.End = *sessions[i].EndedAt
		}
		if iv.Covers(at) {
			return &sessions[i]
		}
	}
	return nil
}

func (e *Engine) shoeNames(ctx context.Context) (map[int64]string, error) {
	shoes, err := e.store.ListShoes(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list shoes: %w", err)
	}
	names := make(map[int64]string, len(shoes))
	for _, shoe := range shoes {
		names[shoe.ID] = shoe.Name
	}
	return names, nil
}
