package domain

import "time"

// Review type markers recorded on log entries.
const (
	ReviewTypeScheduled = "scheduled" // normal due-card review
	ReviewTypeCram      = "cram"      // out-of-schedule practice
)

// ReviewRecord is one append-only review log entry.
//
// The State, Due, Stability, Difficulty, ScheduledDays and Step fields are
// the card's values at review time, before the update was applied.
// ElapsedDays is the number of whole days since the previous review;
// LastElapsedDays is the elapsed-days value that was in effect going into
// this review, so analytics can reconstruct consecutive interval pairs.
// Both must be set on every persisted record; a record missing either is
// corrupt and is rejected before any write happens.
type ReviewRecord struct {
	ID     string
	CardID string
	UserID string
	Rating Rating

	State         State
	Due           time.Time
	Stability     float64
	Difficulty    float64
	ScheduledDays int
	Step          int

	ElapsedDays     *int
	LastElapsedDays *int
	ReviewedAt      time.Time

	DurationMs int
	SessionID  string
	ReviewType string
}
