package review

import "errors"

// Sentinel errors surfaced to callers of the review service.
var (
	// ErrCardNotFound means the card does not exist or does not belong to
	// the requesting user. The ownership check lives here, not upstream.
	ErrCardNotFound = errors.New("review: card not found")

	// ErrConfigurationMissing means the user has no scheduling parameters
	// record. Callers provision defaults before retrying.
	ErrConfigurationMissing = errors.New("review: scheduling parameters missing")

	// ErrConflict means concurrent reviews of the same card kept colliding
	// past the retry budget.
	ErrConflict = errors.New("review: card review conflict")
)
