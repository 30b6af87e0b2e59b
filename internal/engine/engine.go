// Package engine implements session and attribution reconciliation:
// it decides, for every hour of recorded activity, which shoe owns it.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/verte-zerg/stride/internal/model"
	"github.com/verte-zerg/stride/internal/samples"
	"github.com/verte-zerg/stride/internal/store"
)

// Engine coordinates sessions, explicit attributions, and raw activity
// samples over a single store. All mutations are serialized behind one
// mutex and applied as one store transaction each; reads observe only
// committed state.
type Engine struct {
	mu      sync.Mutex
	store   *store.Store
	samples samples.Provider

	// now is swapped out by tests.
	now func() time.Time
}

// New creates an engine over the given store and samples provider.
func New(st *store.Store, provider samples.Provider) *Engine {
	return &Engine{store: st, samples: provider, now: time.Now}
}

// StartSession opens a session for the shoe. Any currently open session,
// for any shoe, is closed first; both writes commit atomically.
func (e *Engine) StartSession(ctx context.Context, shoeID int64, autoStarted bool) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked(ctx, shoeID, autoStarted)
}

func (e *Engine) startLocked(ctx context.Context, shoeID int64, autoStarted bool) (int64, error) {
	now := e.now().UTC()
	var sessionID int64
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
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
		if err := e.closeOpenSessions(ctx, tx, now, false); err != nil {
			return err
		}
		sessionID, err = tx.InsertSession(ctx, model.Session{
			ShoeID:      shoeID,
			StartedAt:   now,
			AutoStarted: autoStarted,
		})
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return sessionID, nil
}

// StopSession closes the shoe's open session, caching the activity
// totals its interval covered. Returns ErrNoActiveSession when the shoe
// has no open session.
func (e *Engine) StopSession(ctx context.Context, shoeID int64, autoClosed bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked(ctx, shoeID, autoClosed)
}

func (e *Engine) stopLocked(ctx context.Context, shoeID int64, autoClosed bool) error {
	now := e.now().UTC()
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		open, err := tx.OpenSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list open sessions: %w", err)
		}
		for _, sess := range open {
			if sess.ShoeID == shoeID {
				return e.closeSession(ctx, tx, sess, now, autoClosed)
			}
		}
		return ErrNoActiveSession
	})
}

// ToggleSession stops the shoe's session when one is open and starts one
// otherwise.
func (e *Engine) ToggleSession(ctx context.Context, shoeID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	open, err := e.store.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open sessions: %w", err)
	}
	for _, sess := range open {
		if sess.ShoeID == shoeID {
			return e.stopLocked(ctx, shoeID, false)
		}
	}
	_, err = e.startLocked(ctx, shoeID, false)
	return err
}

// ActiveSession returns the currently open session, or nil when idle.
func (e *Engine) ActiveSession(ctx context.Context) (*model.Session, error) {
	open, err := e.store.OpenSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	if len(open) == 0 {
		return nil, nil
	}
	return &open[0], nil
}

// closeOpenSessions closes every open session as of now. The close
// caused by starting another session is not flagged auto-closed: it
// follows explicit user intent.
func (e *Engine) closeOpenSessions(ctx context.Context, tx *store.Tx, now time.Time, autoClosed bool) error {
	open, err := tx.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open sessions: %w", err)
	}
	for _, sess := range open {
		if err := e.closeSession(ctx, tx, sess, now, autoClosed); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) closeSession(ctx context.Context, tx *store.Tx, sess model.Session, endedAt time.Time, autoClosed bool) error {
	if !endedAt.After(sess.StartedAt) {
		// A session closed in the same instant it started would violate
		// the end > start invariant; nudge the end forward.
		endedAt = sess.StartedAt.Add(time.Nanosecond)
	}
	steps, distance, err := samples.StepsInRange(ctx, e.samples, sess.StartedAt, endedAt)
	if err != nil {
		return fmt.Errorf("failed to probe samples: %w", err)
	}
	if err := tx.CloseSession(ctx, sess.ID, endedAt, autoClosed, steps, distance); err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}
