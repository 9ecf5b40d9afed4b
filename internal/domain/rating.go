package domain

import "fmt"

// Rating is the learner's assessment of recall quality for one review.
//
// Manual (0) exists only to classify imported or hand-edited log entries.
// It is never a valid input to a live review.
type Rating int

const (
	Manual Rating = iota // reserved, log classification only
	Again                // failed to recall
	Hard                 // recalled with significant difficulty
	Good                 // recalled with some effort
	Easy                 // recalled effortlessly
)

var ratingNames = [...]string{
	Manual: "Manual",
	Again:  "Again",
	Hard:   "Hard",
	Good:   "Good",
	Easy:   "Easy",
}

// IsValid reports whether r is a rating a learner can submit (Again..Easy).
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the rating name, or "Rating(n)" for out-of-range values.
func (r Rating) String() string {
	if r >= Manual && r <= Easy {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}
