package storage

import (
	"context"
	"fmt"

	"github.com/cardwheel/cardwheel/internal/domain"
)

// ApplyReview persists one review outcome: the card-state update and the
// review-log insert land in a single transaction, so either both are
// visible or neither is. The update is guarded by expectedReps; ErrStale
// rolls the whole pair back.
func (db *DB) ApplyReview(ctx context.Context, card domain.Card, expectedReps int, rec domain.ReviewRecord) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateCardState(ctx, tx, card, expectedReps); err != nil {
		return err
	}
	if err := insertReviewLog(ctx, tx, rec); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review transaction: %w", err)
	}
	return nil
}
