package domain

import "time"

// Card is one flashcard together with its scheduling memory state.
//
// Content fields (Question, Answer, Context) come from the card's source
// file; Hash is the content hash used to match cards across syncs. The
// remaining fields are owned by the scheduler: they are written only by
// applying an engine result, never edited directly. Suspension is the one
// exception, it is a flag toggle that leaves the state machine intact.
type Card struct {
	ID       string
	UserID   string
	Bag      string
	SourceID int64
	Question string
	Answer   string
	Context  string
	Hash     string

	State         State
	Step          int
	Stability     float64
	Difficulty    float64
	Due           time.Time
	LastReview    *time.Time // nil before the first review
	ElapsedDays   *int       // nil before the first review
	ScheduledDays int
	Reps          int
	Lapses        int
	Suspended     bool

	CreatedAt time.Time
}

// NewCard creates a card in the New state, due immediately.
func NewCard(id, userID, bag string, now time.Time) Card {
	return Card{
		ID:        id,
		UserID:    userID,
		Bag:       bag,
		State:     StateNew,
		Due:       now,
		CreatedAt: now,
	}
}

// Reviewed reports whether the card has completed at least one review.
func (c Card) Reviewed() bool {
	return c.LastReview != nil
}
