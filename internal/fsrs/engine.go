package fsrs

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cardwheel/cardwheel/internal/domain"
)

// Engine computes the next memory state for a card after a review.
// It is stateless and safe for concurrent use.
type Engine struct{}

// Schedule maps (card, parameters, rating, review instant) to the updated
// card and the review log entry for the event. The input card is not
// mutated and no I/O happens; callers own persistence.
//
// The returned record snapshots the card's pre-review scheduling values.
// Schedule fails with ErrInvalidRating for Manual or out-of-range ratings,
// ErrInvalidParameters for a bad bundle, and ErrIncompleteResult if the
// produced elapsed-day fields are not all set.
func (e Engine) Schedule(p Parameters, card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewRecord, error) {
	if !rating.IsValid() {
		return domain.Card{}, domain.ReviewRecord{},
			fmt.Errorf("%w: %s is not a reviewable rating", ErrInvalidRating, rating)
	}
	if err := p.Validate(); err != nil {
		return domain.Card{}, domain.ReviewRecord{}, err
	}

	w := p.weights()

	elapsed := 0
	if card.LastReview != nil {
		if d := int(now.Sub(*card.LastReview).Hours() / 24); d > 0 {
			elapsed = d
		}
	}
	lastElapsed := 0
	if card.ElapsedDays != nil {
		lastElapsed = *card.ElapsedDays
	}

	rec := domain.ReviewRecord{
		CardID:          card.ID,
		UserID:          card.UserID,
		Rating:          rating,
		State:           card.State,
		Due:             card.Due,
		Stability:       card.Stability,
		Difficulty:      card.Difficulty,
		ScheduledDays:   card.ScheduledDays,
		Step:            card.Step,
		ElapsedDays:     &elapsed,
		LastElapsedDays: &lastElapsed,
		ReviewedAt:      now,
	}

	next := card
	next.Reps++

	switch card.State {
	case domain.StateNew:
		e.reviewNew(w, p, &next, rating, now)
	case domain.StateLearning:
		e.reviewLearning(w, p, &next, rating, now, p.LearningSteps)
	case domain.StateRelearning:
		e.reviewLearning(w, p, &next, rating, now, p.RelearningSteps)
	case domain.StateReview:
		e.reviewReview(w, p, &next, rating, now, elapsed)
	default:
		return domain.Card{}, domain.ReviewRecord{},
			fmt.Errorf("fsrs: unknown card state %s", card.State)
	}

	if p.EnableFuzz && next.State == domain.StateReview && next.ScheduledDays > 0 {
		rng := rand.New(rand.NewSource(fuzzSeed(now, next.Reps, next.Stability)))
		next.ScheduledDays = applyFuzz(next.ScheduledDays, p.MaximumIntervalDays, rng)
		next.Due = now.Add(time.Duration(next.ScheduledDays) * 24 * time.Hour)
	}

	next.LastReview = &now
	next.ElapsedDays = &elapsed

	if err := checkComplete(next, rec); err != nil {
		return domain.Card{}, domain.ReviewRecord{}, err
	}
	return next, rec, nil
}

// Retrievability returns the probability the card is still recalled at
// the given instant, or 0 for a card that has never been reviewed.
func (e Engine) Retrievability(card domain.Card, now time.Time) float64 {
	if card.LastReview == nil {
		return 0
	}
	elapsed := int(now.Sub(*card.LastReview).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}
	return retrievability(elapsed, card.Stability)
}

// stepsOrNil returns the step table, or nil when sub-day scheduling is
// disabled so every path graduates straight to Review.
func stepsOrNil(p Parameters, steps []time.Duration) []time.Duration {
	if !p.EnableShortTerm {
		return nil
	}
	return steps
}

// reviewNew seeds stability and difficulty from the first rating and
// enters the learning flow (or graduates immediately when there are no
// learning steps).
func (e Engine) reviewNew(w [WeightCountV5]float64, p Parameters, next *domain.Card, rating domain.Rating, now time.Time) {
	next.Stability = initialStability(w, rating)
	next.Difficulty = initialDifficulty(w, rating)

	steps := stepsOrNil(p, p.LearningSteps)
	if len(steps) == 0 {
		graduate(p, next, now)
		return
	}

	switch rating {
	case domain.Again:
		stay(next, domain.StateLearning, 0, now, steps[0])
	case domain.Hard:
		// Repeat step zero with a delay between the first two steps.
		delay := steps[0]
		if len(steps) > 1 {
			delay = (steps[0] + steps[1]) / 2
		}
		stay(next, domain.StateLearning, 0, now, delay)
	case domain.Good:
		if len(steps) > 1 {
			stay(next, domain.StateLearning, 1, now, steps[1])
		} else {
			graduate(p, next, now)
		}
	case domain.Easy:
		graduate(p, next, now)
	}
}

// reviewLearning advances a Learning or Relearning card through its step
// table. Again resets to step zero, Hard repeats the current step, Good
// advances (graduating past the last step), Easy graduates immediately.
func (e Engine) reviewLearning(w [WeightCountV5]float64, p Parameters, next *domain.Card, rating domain.Rating, now time.Time, stepTable []time.Duration) {
	next.Stability = shortTermStability(w, next.Stability, rating)
	next.Difficulty = nextDifficulty(w, next.Difficulty, rating)

	steps := stepsOrNil(p, stepTable)
	if len(steps) == 0 || (next.Step >= len(steps) && rating != domain.Again) {
		graduate(p, next, now)
		return
	}

	switch rating {
	case domain.Again:
		stay(next, next.State, 0, now, steps[0])
	case domain.Hard:
		stay(next, next.State, next.Step, now, steps[next.Step])
	case domain.Good:
		if next.Step+1 >= len(steps) {
			graduate(p, next, now)
		} else {
			stay(next, next.State, next.Step+1, now, steps[next.Step+1])
		}
	case domain.Easy:
		graduate(p, next, now)
	}
}

// reviewReview applies the long-interval model. Again is a lapse: the
// lapse counter increments and the card demotes to Relearning with the
// post-lapse stability. Other ratings grow stability per the recall
// formula (or the short-term formula for a same-day review) and stay in
// Review.
func (e Engine) reviewReview(w [WeightCountV5]float64, p Parameters, next *domain.Card, rating domain.Rating, now time.Time, elapsed int) {
	preDifficulty := next.Difficulty

	if rating == domain.Again {
		next.Lapses++
		r := retrievability(max(elapsed, 1), next.Stability)
		next.Stability = stabilityAfterForgetting(w, next.Stability, preDifficulty, r)
		next.Difficulty = nextDifficulty(w, preDifficulty, rating)

		steps := stepsOrNil(p, p.RelearningSteps)
		if len(steps) > 0 {
			stay(next, domain.StateRelearning, 0, now, steps[0])
			return
		}
		// No sub-day steps: the card still demotes, but the next review
		// comes from the post-lapse stability interval.
		next.State = domain.StateRelearning
		next.Step = 0
		next.ScheduledDays = clampInterval(nextInterval(next.Stability, p.RequestRetention), p.MaximumIntervalDays)
		next.Due = now.Add(time.Duration(next.ScheduledDays) * 24 * time.Hour)
		return
	}

	if elapsed < 1 {
		next.Stability = shortTermStability(w, next.Stability, rating)
	} else {
		r := retrievability(elapsed, next.Stability)
		next.Stability = stabilityAfterRecall(w, next.Stability, preDifficulty, r, rating)
	}
	next.Difficulty = nextDifficulty(w, preDifficulty, rating)
	graduate(p, next, now)
}

// graduate moves the card into Review with an interval derived from its
// stability, clamped to [1, maximumIntervalDays].
func graduate(p Parameters, next *domain.Card, now time.Time) {
	next.State = domain.StateReview
	next.Step = 0
	next.ScheduledDays = clampInterval(nextInterval(next.Stability, p.RequestRetention), p.MaximumIntervalDays)
	next.Due = now.Add(time.Duration(next.ScheduledDays) * 24 * time.Hour)
}

// stay keeps the card in a sub-day state at the given step.
func stay(next *domain.Card, state domain.State, step int, now time.Time, delay time.Duration) {
	next.State = state
	next.Step = step
	next.ScheduledDays = 0
	next.Due = now.Add(delay)
}

// checkComplete enforces the elapsed-day postcondition: every produced
// result must carry all three elapsed-day fields. Zero is a valid value
// (first review), absence is not, and defaulting absence to zero would
// silently corrupt future interval calculations.
func checkComplete(next domain.Card, rec domain.ReviewRecord) error {
	if next.ElapsedDays == nil {
		return fmt.Errorf("%w: next state missing elapsed_days", ErrIncompleteResult)
	}
	if rec.ElapsedDays == nil {
		return fmt.Errorf("%w: review record missing elapsed_days", ErrIncompleteResult)
	}
	if rec.LastElapsedDays == nil {
		return fmt.Errorf("%w: review record missing last_elapsed_days", ErrIncompleteResult)
	}
	return nil
}
