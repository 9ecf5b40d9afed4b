package fsrs

import "errors"

// Sentinel errors for the scheduling engine.
// Check with errors.Is, e.g. errors.Is(err, fsrs.ErrInvalidRating).
var (
	// ErrInvalidRating means a Manual or out-of-range rating was supplied
	// to a live review. Manual exists only for log classification.
	ErrInvalidRating = errors.New("fsrs: invalid rating")

	// ErrInvalidParameters means the parameter bundle failed validation
	// (wrong weight count, retention outside (0,1), and so on).
	ErrInvalidParameters = errors.New("fsrs: invalid parameters")

	// ErrIncompleteResult means the engine produced a result missing a
	// required elapsed-day field. This is a data-integrity fault: the
	// result must never be persisted, and a defaulted value would corrupt
	// every future interval calculation, so it is a loud failure instead.
	ErrIncompleteResult = errors.New("fsrs: incomplete result")
)
