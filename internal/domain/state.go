package domain

import "fmt"

// State is a card's position in the spaced-repetition lifecycle.
type State int

const (
	StateNew        State = iota // authored, never reviewed
	StateLearning                // inside the learning steps
	StateReview                  // long-interval scheduling
	StateRelearning              // lapsed, inside the relearning steps
)

var stateNames = [...]string{
	StateNew:        "New",
	StateLearning:   "Learning",
	StateReview:     "Review",
	StateRelearning: "Relearning",
}

// IsValid reports whether s is one of the four lifecycle states.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the state name, or "State(n)" for out-of-range values.
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
