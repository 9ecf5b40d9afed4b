package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cardwheel/cardwheel/internal/domain"
)

const cardColumns = `id, user_id, bag, source_id, hash, question, answer, context,
	state, step, stability, difficulty, due, last_review, elapsed_days,
	scheduled_days, reps, lapses, suspended, created_at`

// InsertCard inserts a new card row.
func (db *DB) InsertCard(ctx context.Context, card domain.Card) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID, card.UserID, card.Bag, nullInt64(card.SourceID), card.Hash,
		card.Question, card.Answer, card.Context,
		int(card.State), card.Step, card.Stability, card.Difficulty,
		card.Due, nullTime(card.LastReview), nullInt(card.ElapsedDays),
		card.ScheduledDays, card.Reps, card.Lapses, card.Suspended, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// GetCard retrieves a card by id scoped to its owning user.
// Returns (nil, nil) when no such card exists for that user.
func (db *DB) GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE id = ? AND user_id = ?
	`, cardID, userID)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card %s: %w", cardID, err)
	}
	return card, nil
}

// FindCardByHash retrieves a user's card by content hash.
// Returns (nil, nil) when absent.
func (db *DB) FindCardByHash(ctx context.Context, userID, hash string) (*domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE user_id = ? AND hash = ?
	`, userID, hash)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}
	return card, nil
}

// UpdateCardState writes the scheduler-owned fields of a card, guarded by
// the reps count observed at read time. Returns ErrStale when a concurrent
// review already advanced the card, so two reviews of the same card can
// never both land (lost-update protection).
func (db *DB) UpdateCardState(ctx context.Context, card domain.Card, expectedReps int) error {
	return updateCardState(ctx, db.conn, card, expectedReps)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateCardState(ctx context.Context, ex execer, card domain.Card, expectedReps int) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE cards
		SET state = ?, step = ?, stability = ?, difficulty = ?, due = ?,
		    last_review = ?, elapsed_days = ?, scheduled_days = ?,
		    reps = ?, lapses = ?
		WHERE id = ? AND reps = ?
	`,
		int(card.State), card.Step, card.Stability, card.Difficulty, card.Due,
		nullTime(card.LastReview), nullInt(card.ElapsedDays), card.ScheduledDays,
		card.Reps, card.Lapses,
		card.ID, expectedReps,
	)
	if err != nil {
		return fmt.Errorf("failed to update card state for %s: %w", card.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of card %s: %w", card.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("card %s: %w", card.ID, ErrStale)
	}
	return nil
}

// SetSuspended toggles the suspension flag on a user's card.
// Returns (found, error).
func (db *DB) SetSuspended(ctx context.Context, userID, cardID string, suspended bool) (bool, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE cards SET suspended = ? WHERE id = ? AND user_id = ?
	`, suspended, cardID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set suspended on card %s: %w", cardID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check suspend of card %s: %w", cardID, err)
	}
	return n > 0, nil
}

// DueCards returns up to limit unsuspended cards with due <= now, earliest
// due first, creation order breaking ties. An empty bag means all bags.
func (db *DB) DueCards(ctx context.Context, userID, bag string, now time.Time, limit int) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE user_id = ? AND suspended = 0 AND due <= ?
		  AND (? = '' OR bag = ?)
		ORDER BY due ASC, created_at ASC, id ASC
		LIMIT ?
	`, userID, now, bag, bag, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due cards: %w", err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// CountDue returns the number of unsuspended cards with due <= now.
func (db *DB) CountDue(ctx context.Context, userID, bag string, now time.Time) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM cards
		WHERE user_id = ? AND suspended = 0 AND due <= ?
		  AND (? = '' OR bag = ?)
	`, userID, now, bag, bag).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count due cards: %w", err)
	}
	return n, nil
}

// NextNewCard returns the oldest unsuspended card still in the New state,
// for introduce-new-material flows. Returns (nil, nil) when none remain.
func (db *DB) NextNewCard(ctx context.Context, userID, bag string) (*domain.Card, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE user_id = ? AND suspended = 0 AND state = ?
		  AND (? = '' OR bag = ?)
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, userID, int(domain.StateNew), bag, bag)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get next new card: %w", err)
	}
	return card, nil
}

// CardsBySource returns all cards belonging to a source, for sync
// reconciliation.
func (db *DB) CardsBySource(ctx context.Context, sourceID int64) ([]domain.Card, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards WHERE source_id = ?
	`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for source %d: %w", sourceID, err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// DeleteCard removes a card row.
func (db *DB) DeleteCard(ctx context.Context, cardID string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, cardID); err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		c           domain.Card
		sourceID    sql.NullInt64
		state       int
		lastReview  sql.NullTime
		elapsedDays sql.NullInt64
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.Bag, &sourceID, &c.Hash,
		&c.Question, &c.Answer, &c.Context,
		&state, &c.Step, &c.Stability, &c.Difficulty,
		&c.Due, &lastReview, &elapsedDays,
		&c.ScheduledDays, &c.Reps, &c.Lapses, &c.Suspended, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.State = domain.State(state)
	if sourceID.Valid {
		c.SourceID = sourceID.Int64
	}
	if lastReview.Valid {
		t := lastReview.Time
		c.LastReview = &t
	}
	if elapsedDays.Valid {
		d := int(elapsedDays.Int64)
		c.ElapsedDays = &d
	}
	return &c, nil
}

func collectCards(rows *sql.Rows) ([]domain.Card, error) {
	var cards []domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullInt64(n int64) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: n, Valid: true}
}
