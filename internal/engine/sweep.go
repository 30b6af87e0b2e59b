package engine

import (
	"context"
	"fmt"

	"github.com/verte-zerg/stride/internal/samples"
	"github.com/verte-zerg/stride/internal/store"
)

// SweepResult reports what an auto-management pass did.
type SweepResult struct {
	ClosedSessionIDs  []int64
	AutoStartedShoeID int64
}

// RunAutoManagementSweep closes idle sessions and then, if nothing is
// worn and today's activity has no owner, starts the default shoe. The
// idle pass runs first so a stale session cannot block auto-start. The
// sweep is cooperative: callers invoke it per query cycle, there is no
// background timer.
func (e *Engine) RunAutoManagementSweep(ctx context.Context) (SweepResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var result SweepResult
	closed, err := e.sweepIdleTimeouts(ctx)
	if err != nil {
		return result, err
	}
	result.ClosedSessionIDs = closed

	started, err := e.sweepDefaultAutoStart(ctx)
	if err != nil {
		return result, err
	}
	result.AutoStartedShoeID = started
	return result, nil
}

// sweepIdleTimeouts auto-closes every open session older than its
// shoe's inactivity timeout, unless the samples probe reports activity
// since the session started. A zero timeout disables auto-close for
// that shoe. This is the only path that closes a session without
// explicit user intent.
func (e *Engine) sweepIdleTimeouts(ctx context.Context) ([]int64, error) {
	now := e.now().UTC()
	open, err := e.store.OpenSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	var closed []int64
	for _, sess := range open {
		shoe, err := e.store.GetShoe(ctx, sess.ShoeID)
		if err != nil {
			return closed, fmt.Errorf("failed to load shoe: %w", err)
		}
		if shoe == nil || shoe.InactivityTimeout <= 0 {
			continue
		}
		if now.Sub(sess.StartedAt) <= shoe.InactivityTimeout {
			continue
		}
		active, err := samples.HasActivityInRange(ctx, e.samples, sess.StartedAt, now)
		if err != nil {
			return closed, fmt.Errorf("failed to probe samples: %w", err)
		}
		if active {
			continue
		}
		err = e.store.WithTx(ctx, func(tx *store.Tx) error {
			return e.closeSession(ctx, tx, sess, now, true)
		})
		if err != nil {
			return closed, err
		}
		closed = append(closed, sess.ID)
	}
	return closed, nil
}

// sweepDefaultAutoStart starts the default shoe when no session is open
// and today's samples contain activity no record owns. No default shoe,
// or an archived one, makes this a no-op.
func (e *Engine) sweepDefaultAutoStart(ctx context.Context) (int64, error) {
	open, err := e.store.OpenSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list open sessions: %w", err)
	}
	if len(open) > 0 {
		return 0, nil
	}
	def, err := e.store.DefaultShoe(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load default shoe: %w", err)
	}
	if def == nil || def.Archived {
		return 0, nil
	}
	unowned, err := e.hasUnattributedActivity(ctx)
	if err != nil {
		return 0, err
	}
	if !unowned {
		return 0, nil
	}
	if _, err := e.startLocked(ctx, def.ID, true); err != nil {
		return 0, err
	}
	return def.ID, nil
}

func (e *Engine) hasUnattributedActivity(ctx context.Context) (bool, error) {
	hours, err := e.ReconciledHours(ctx, e.now())
	if err != nil {
		return false, err
	}
	for _, hour := range hours {
		if hour.Steps > 0 && !hour.Owned() {
			return true, nil
		}
	}
	return false, nil
}
