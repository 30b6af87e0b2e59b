package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/verte-zerg/stride/internal/model"
	"github.com/verte-zerg/stride/internal/store"
)

// AddShoe registers a new shoe with the given inactivity timeout and
// returns its id.
func (e *Engine) AddShoe(ctx context.Context, name string, timeout time.Duration) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var id int64
	err := e.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		id, err = tx.InsertShoe(ctx, name, timeout)
		if err != nil {
			return fmt.Errorf("failed to insert shoe: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// ArchiveShoe soft-deletes a shoe. Its open session, if any, is closed
// first so an archived shoe never holds the open session. Historical
// sessions and attributions stay untouched.
func (e *Engine) ArchiveShoe(ctx context.Context, shoeID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now().UTC()
	return e.store.WithTx(ctx, func(tx *store.Tx) error {
		shoe, err := tx.GetShoe(ctx, shoeID)
		if err != nil {
			return fmt.Errorf("failed to load shoe: %w", err)
		}
		if shoe == nil {
			return ErrUnknownShoe
		}
		open, err := tx.OpenSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list open sessions: %w", err)
		}
		for _, sess := range open {
			if sess.ShoeID == shoeID {
				if err := e.closeSession(ctx, tx, sess, now, false); err != nil {
					return err
				}
			}
		}
		if err := tx.SetShoeArchived(ctx, shoeID, true); err != nil {
			return fmt.Errorf("failed to archive shoe: %w", err)
		}
		return nil
	})
}

// SetDefaultShoe flags the shoe as the auto-start default, clearing the
// flag on every other shoe in the same transaction.
func (e *Engine) SetDefaultShoe(ctx context.Context, shoeID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

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
		if err := tx.SetDefaultShoe(ctx, shoeID); err != nil {
			return fmt.Errorf("failed to set default shoe: %w", err)
		}
		return nil
	})
}

// Shoes lists shoes, optionally including archived ones.
func (e *Engine) Shoes(ctx context.Context, includeArchived bool) ([]model.Shoe, error) {
	return e.store.ListShoes(ctx, includeArchived)
}

// ShoeByName resolves a shoe by its name, or nil when absent.
func (e *Engine) ShoeByName(ctx context.Context, name string) (*model.Shoe, error) {
	return e.store.GetShoeByName(ctx, name)
}
