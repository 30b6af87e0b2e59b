package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/stride/internal/interval"
	"github.com/verte-zerg/stride/internal/model"
	"github.com/verte-zerg/stride/internal/store"
)

// resolveConflicts deletes every session and hour attribution whose
// interval overlaps the target, so the caller can assert new ownership
// without violating the one-owner-per-hour invariant. Records are
// removed whole, not clipped. Returns the shoe ids that lost ownership,
// sorted; calling again on the same target deletes nothing further.
func resolveConflicts(ctx context.Context, tx *store.Tx, target interval.Interval) ([]int64, error) {
	affected := map[int64]struct{}{}

	sessions, err := tx.SessionsOverlapping(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting sessions: %w", err)
	}
	for _, sess := range sessions {
		if err := tx.DeleteSession(ctx, sess.ID); err != nil {
			return nil, fmt.Errorf("failed to delete session: %w", err)
		}
		affected[sess.ShoeID] = struct{}{}
	}

	attrs, err := attributionsOverlapping(ctx, tx, target)
	if err != nil {
		return nil, err
	}
	for _, attr := range attrs {
		if _, err := tx.DeleteAttribution(ctx, attr.Hour); err != nil {
			return nil, fmt.Errorf("failed to delete attribution: %w", err)
		}
		affected[attr.ShoeID] = struct{}{}
	}

	ids := make([]int64, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// attributionsOverlapping finds attributions whose one-hour interval
// overlaps the target. Attribution hours are aligned, so any overlapping
// record starts at or after the floor of the target start.
func attributionsOverlapping(ctx context.Context, tx *store.Tx, target interval.Interval) ([]model.HourAttribution, error) {
	start := model.HourFloor(target.Start)
	end := target.End
	if target.IsOpen() {
		// No attribution can exist meaningfully far in the future; scan a
		// generous bounded window instead of an unbounded one.
		end = target.Start.Add(24 * 366 * time.Hour)
	}
	candidates, err := tx.AttributionsInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting attributions: %w", err)
	}
	out := candidates[:0]
	for _, attr := range candidates {
		if interval.Hour(attr.Hour).Overlaps(target) {
			out = append(out, attr)
		}
	}
	return out, nil
}
