package fsrs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwheel/cardwheel/internal/domain"
)

func testParams() Parameters {
	p := DefaultParameters()
	p.EnableFuzz = false
	return p
}

func newCardAt(now time.Time) domain.Card {
	return domain.NewCard("card-1", "user-1", "", now)
}

// reviewCardAt builds a Review-state card with the given stability and
// difficulty, last reviewed elapsed days before now with priorElapsed on
// record.
func reviewCardAt(now time.Time, stability, difficulty float64, daysAgo, priorElapsed int) domain.Card {
	last := now.AddDate(0, 0, -daysAgo)
	card := domain.NewCard("card-1", "user-1", "", last.AddDate(0, 0, -30))
	card.State = domain.StateReview
	card.Stability = stability
	card.Difficulty = difficulty
	card.LastReview = &last
	card.ElapsedDays = &priorElapsed
	card.ScheduledDays = 7
	card.Reps = 4
	card.Lapses = 1
	card.Due = last.AddDate(0, 0, 7)
	return card
}

func TestScheduleFirstReviewGood(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	card := newCardAt(now.Add(-time.Hour))

	next, rec, err := Engine{}.Schedule(testParams(), card, domain.Good, now)
	require.NoError(t, err)

	assert.Equal(t, domain.StateLearning, next.State)
	assert.Equal(t, 1, next.Step)
	assert.Equal(t, now.Add(10*time.Minute), next.Due)
	assert.Equal(t, 1, next.Reps)
	assert.Equal(t, 0, next.Lapses)

	require.NotNil(t, next.ElapsedDays)
	assert.Equal(t, 0, *next.ElapsedDays)
	require.NotNil(t, rec.ElapsedDays)
	assert.Equal(t, 0, *rec.ElapsedDays)
	require.NotNil(t, rec.LastElapsedDays)
	assert.Equal(t, 0, *rec.LastElapsedDays)

	// The record snapshots the pre-review state.
	assert.Equal(t, domain.StateNew, rec.State)
	assert.Equal(t, 0.0, rec.Stability)
}

func TestScheduleReviewGoodElapsedBookkeeping(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	card := reviewCardAt(now, 3, 3, 6, 5)

	next, rec, err := Engine{}.Schedule(testParams(), card, domain.Good, now)
	require.NoError(t, err)

	require.NotNil(t, next.ElapsedDays)
	assert.Equal(t, 6, *next.ElapsedDays)
	require.NotNil(t, rec.ElapsedDays)
	assert.Equal(t, 6, *rec.ElapsedDays)

	// lastElapsedDays is the interval before the one just completed.
	require.NotNil(t, rec.LastElapsedDays)
	assert.Equal(t, 5, *rec.LastElapsedDays)

	assert.Equal(t, domain.StateReview, next.State)
	assert.Greater(t, next.Stability, card.Stability, "successful recall grows stability")
	assert.Equal(t, card.Lapses, next.Lapses)
	assert.Equal(t, card.Reps+1, next.Reps)
	assert.Equal(t, now.Add(time.Duration(next.ScheduledDays)*24*time.Hour), next.Due)
}

func TestScheduleReviewAgainLapses(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	card := reviewCardAt(now, 3, 3, 6, 5)

	next, _, err := Engine{}.Schedule(testParams(), card, domain.Again, now)
	require.NoError(t, err)

	assert.Equal(t, domain.StateRelearning, next.State)
	assert.Equal(t, card.Lapses+1, next.Lapses)
	assert.Less(t, next.Stability, card.Stability, "lapse shrinks stability")
	assert.Equal(t, 0, next.Step)
	assert.Equal(t, now.Add(10*time.Minute), next.Due, "relearning uses the first relearning step")
}

func TestScheduleLearningSteps(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()

	card := newCardAt(now)
	card.State = domain.StateLearning
	card.Step = 1
	card.Stability = 1.5
	card.Difficulty = 5
	last := now.Add(-10 * time.Minute)
	card.LastReview = &last
	zero := 0
	card.ElapsedDays = &zero
	card.Reps = 1

	t.Run("again resets to step zero", func(t *testing.T) {
		next, _, err := Engine{}.Schedule(p, card, domain.Again, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StateLearning, next.State)
		assert.Equal(t, 0, next.Step)
		assert.Equal(t, now.Add(time.Minute), next.Due)
		assert.Equal(t, 0, next.Lapses, "lapses only count Review demotions")
	})

	t.Run("good at the last step graduates", func(t *testing.T) {
		next, _, err := Engine{}.Schedule(p, card, domain.Good, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StateReview, next.State)
		assert.Equal(t, 0, next.Step)
		assert.GreaterOrEqual(t, next.ScheduledDays, 1)
	})

	t.Run("hard repeats the current step", func(t *testing.T) {
		next, _, err := Engine{}.Schedule(p, card, domain.Hard, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StateLearning, next.State)
		assert.Equal(t, 1, next.Step)
		assert.Equal(t, now.Add(10*time.Minute), next.Due)
	})
}

func TestScheduleShortTermDisabled(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()
	p.EnableShortTerm = false

	next, _, err := Engine{}.Schedule(p, newCardAt(now), domain.Good, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReview, next.State, "first rating graduates straight to Review")
	assert.GreaterOrEqual(t, next.ScheduledDays, 1)

	t.Run("lapse still demotes", func(t *testing.T) {
		card := reviewCardAt(now, 3, 3, 6, 5)
		next, _, err := Engine{}.Schedule(p, card, domain.Again, now)
		require.NoError(t, err)
		assert.Equal(t, domain.StateRelearning, next.State)
		assert.Equal(t, card.Lapses+1, next.Lapses)
		assert.GreaterOrEqual(t, next.ScheduledDays, 1, "due comes from stability, not a sub-day step")
	})
}

func TestScheduleRejectsManualRating(t *testing.T) {
	now := time.Now()
	for _, rating := range []domain.Rating{domain.Manual, domain.Rating(5), domain.Rating(-1)} {
		_, _, err := Engine{}.Schedule(testParams(), newCardAt(now), rating, now)
		assert.ErrorIs(t, err, ErrInvalidRating, "rating %d", int(rating))
	}
}

func TestScheduleRepsMonotonic(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()

	cards := []domain.Card{
		newCardAt(now),
		reviewCardAt(now, 3, 3, 6, 5),
		reviewCardAt(now, 40, 8, 45, 30),
	}
	for _, card := range cards {
		for _, rating := range []domain.Rating{domain.Again, domain.Hard, domain.Good, domain.Easy} {
			next, _, err := Engine{}.Schedule(p, card, rating, now)
			require.NoError(t, err)
			assert.Equal(t, card.Reps+1, next.Reps)
		}
	}
}

func TestScheduleDifficultyBounded(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()

	low := reviewCardAt(now, 10, 1, 10, 10)
	high := reviewCardAt(now, 10, 10, 10, 10)

	for i := 0; i < 20; i++ {
		next, _, err := Engine{}.Schedule(p, low, domain.Easy, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, next.Difficulty, 1.0)
		low.Difficulty = next.Difficulty

		next, _, err = Engine{}.Schedule(p, high, domain.Again, now)
		require.NoError(t, err)
		assert.LessOrEqual(t, next.Difficulty, 10.0)
		high.Difficulty = next.Difficulty
	}
}

func TestScheduleDeterministic(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := DefaultParameters() // fuzz enabled: the jitter must still be reproducible
	card := reviewCardAt(now, 21, 6, 25, 20)

	first, firstRec, err := Engine{}.Schedule(p, card, domain.Good, now)
	require.NoError(t, err)
	second, secondRec, err := Engine{}.Schedule(p, card, domain.Good, now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstRec, secondRec)
}

func TestScheduleMaximumInterval(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()
	p.MaximumIntervalDays = 30

	card := reviewCardAt(now, 500, 2, 200, 100)
	next, _, err := Engine{}.Schedule(p, card, domain.Easy, now)
	require.NoError(t, err)
	assert.Equal(t, 30, next.ScheduledDays)
}

func TestScheduleAcceptsSeventeenWeights(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	p := testParams()
	p.Weights = p.Weights[:WeightCountV45]

	next, _, err := Engine{}.Schedule(p, newCardAt(now), domain.Good, now)
	require.NoError(t, err)
	assert.Equal(t, domain.StateLearning, next.State)
}

func TestScheduleInvalidParameters(t *testing.T) {
	now := time.Now()
	p := testParams()
	p.Weights = p.Weights[:5]

	_, _, err := Engine{}.Schedule(p, newCardAt(now), domain.Good, now)
	assert.True(t, errors.Is(err, ErrInvalidParameters))
}

func TestRetrievability(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	assert.Zero(t, Engine{}.Retrievability(newCardAt(now), now), "never-reviewed card")

	card := reviewCardAt(now, 10, 5, 10, 5)
	r := Engine{}.Retrievability(card, now)
	assert.InDelta(t, 0.9, r, 0.01, "retrievability at elapsed == stability is the 90%% target")

	later := Engine{}.Retrievability(card, now.AddDate(0, 0, 30))
	assert.Less(t, later, r, "retrievability decays with time")
}
