package storage

import (
	"context"
	"fmt"

	"github.com/cardwheel/cardwheel/internal/domain"
)

// InsertReviewLog appends one review log entry. Records missing either
// elapsed-day field are rejected here as a last line of defense; the
// orchestrator checks the same invariant before calling.
func (db *DB) InsertReviewLog(ctx context.Context, rec domain.ReviewRecord) error {
	return insertReviewLog(ctx, db.conn, rec)
}

func insertReviewLog(ctx context.Context, ex execer, rec domain.ReviewRecord) error {
	if rec.ElapsedDays == nil || rec.LastElapsedDays == nil {
		return fmt.Errorf("refusing to insert review log for card %s: elapsed_days or last_elapsed_days missing", rec.CardID)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO review_logs
			(id, card_id, user_id, rating, state, due, stability, difficulty,
			 scheduled_days, step, elapsed_days, last_elapsed_days,
			 reviewed_at, duration_ms, session_id, review_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID, rec.CardID, rec.UserID, int(rec.Rating), int(rec.State),
		rec.Due, rec.Stability, rec.Difficulty,
		rec.ScheduledDays, rec.Step, *rec.ElapsedDays, *rec.LastElapsedDays,
		rec.ReviewedAt, rec.DurationMs, rec.SessionID, rec.ReviewType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert review log for card %s: %w", rec.CardID, err)
	}
	return nil
}

// ReviewLogsByCard returns a card's review history, oldest first.
func (db *DB) ReviewLogsByCard(ctx context.Context, cardID string) ([]domain.ReviewRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, card_id, user_id, rating, state, due, stability, difficulty,
		       scheduled_days, step, elapsed_days, last_elapsed_days,
		       reviewed_at, duration_ms, session_id, review_type
		FROM review_logs WHERE card_id = ?
		ORDER BY reviewed_at ASC
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query review logs for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var recs []domain.ReviewRecord
	for rows.Next() {
		var (
			rec             domain.ReviewRecord
			rating, state   int
			elapsed, lastEl int
		)
		if err := rows.Scan(
			&rec.ID, &rec.CardID, &rec.UserID, &rating, &state,
			&rec.Due, &rec.Stability, &rec.Difficulty,
			&rec.ScheduledDays, &rec.Step, &elapsed, &lastEl,
			&rec.ReviewedAt, &rec.DurationMs, &rec.SessionID, &rec.ReviewType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review log row: %w", err)
		}
		rec.Rating = domain.Rating(rating)
		rec.State = domain.State(state)
		rec.ElapsedDays = &elapsed
		rec.LastElapsedDays = &lastEl
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review log rows: %w", err)
	}
	return recs, nil
}
