// Package review orchestrates the review workflow: load card and
// parameters, run the scheduling engine, and persist the outcome
// atomically. It also answers the due-card selection queries.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardwheel/cardwheel/internal/domain"
	"github.com/cardwheel/cardwheel/internal/fsrs"
	"github.com/cardwheel/cardwheel/internal/storage"
)

// submitAttempts bounds optimistic-concurrency retries of the whole
// read-compute-write sequence. The engine is pure, so replaying it on
// freshly read state is safe; a successful write is never retried.
const submitAttempts = 3

// DueDisplayCap is the threshold past which the due count is reported as
// a "100+" sentinel; an exact larger number is not actionable.
const DueDisplayCap = 100

// Store is the storage surface the service needs.
// *storage.DB satisfies it; tests use in-memory fakes.
type Store interface {
	GetCard(ctx context.Context, userID, cardID string) (*domain.Card, error)
	GetParameters(ctx context.Context, userID string) (*fsrs.Parameters, error)
	ApplyReview(ctx context.Context, card domain.Card, expectedReps int, rec domain.ReviewRecord) error
	DueCards(ctx context.Context, userID, bag string, now time.Time, limit int) ([]domain.Card, error)
	CountDue(ctx context.Context, userID, bag string, now time.Time) (int, error)
	NextNewCard(ctx context.Context, userID, bag string) (*domain.Card, error)
}

// Engine computes the next card state for a review.
// fsrs.Engine is the production implementation.
type Engine interface {
	Schedule(p fsrs.Parameters, card domain.Card, rating domain.Rating, now time.Time) (domain.Card, domain.ReviewRecord, error)
}

// Service is the review orchestrator.
type Service struct {
	store  Store
	engine Engine
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a review service. The logger is required; pass a
// discard handler in tests that do not assert on diagnostics.
func NewService(store Store, engine Engine, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		engine: engine,
		logger: logger,
		now:    time.Now,
	}
}

// SubmitRequest is one review submission.
type SubmitRequest struct {
	UserID     string
	CardID     string
	Rating     domain.Rating
	DurationMs int
	SessionID  string
	Cram       bool // out-of-schedule practice
}

// Summary is what the caller needs to render after a successful review.
type Summary struct {
	CardID        string
	NextDue       time.Time
	State         domain.State
	Stability     float64
	Difficulty    float64
	ScheduledDays int
}

// SubmitReview runs the full review workflow. On any failure nothing is
// persisted: the card row and the review log are exactly as they were.
func (s *Service) SubmitReview(ctx context.Context, req SubmitRequest) (*Summary, error) {
	if !req.Rating.IsValid() {
		return nil, fmt.Errorf("%w: %s is not a reviewable rating", fsrs.ErrInvalidRating, req.Rating)
	}

	for attempt := 0; attempt < submitAttempts; attempt++ {
		summary, err := s.submitOnce(ctx, req)
		if errors.Is(err, storage.ErrStale) {
			s.logger.Warn("concurrent review detected, retrying",
				"card_id", req.CardID, "attempt", attempt+1)
			continue
		}
		return summary, err
	}
	return nil, fmt.Errorf("card %s: %w", req.CardID, ErrConflict)
}

func (s *Service) submitOnce(ctx context.Context, req SubmitRequest) (*Summary, error) {
	card, err := s.store.GetCard(ctx, req.UserID, req.CardID)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("card %s for user %s: %w", req.CardID, req.UserID, ErrCardNotFound)
	}

	params, err := s.store.GetParameters(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if params == nil {
		return nil, fmt.Errorf("user %s: %w", req.UserID, ErrConfigurationMissing)
	}

	now := s.now()
	next, rec, err := s.engine.Schedule(*params, *card, req.Rating, now)
	if err != nil {
		return nil, err
	}

	// The engine is an interface; re-verify the elapsed-day postcondition
	// so a misbehaving implementation cannot slip an incomplete result
	// into storage. Defaulting a missing value to zero would corrupt
	// every future interval calculation.
	if rec.ElapsedDays == nil || rec.LastElapsedDays == nil || next.ElapsedDays == nil {
		return nil, fmt.Errorf("%w: engine result missing elapsed_days for card %s",
			fsrs.ErrIncompleteResult, req.CardID)
	}

	rec.ID = uuid.NewString()
	rec.DurationMs = req.DurationMs
	rec.SessionID = req.SessionID
	rec.ReviewType = domain.ReviewTypeScheduled
	if req.Cram {
		rec.ReviewType = domain.ReviewTypeCram
	}

	if err := s.store.ApplyReview(ctx, next, card.Reps, rec); err != nil {
		return nil, err
	}

	s.logger.Debug("review applied",
		"card_id", card.ID,
		"rating", req.Rating.String(),
		"state", next.State.String(),
		"elapsed_days", *rec.ElapsedDays,
		"scheduled_days", next.ScheduledDays,
	)

	return &Summary{
		CardID:        card.ID,
		NextDue:       next.Due,
		State:         next.State,
		Stability:     next.Stability,
		Difficulty:    next.Difficulty,
		ScheduledDays: next.ScheduledDays,
	}, nil
}

// NextDueCard returns the earliest-due eligible card, or (nil, nil) when
// nothing is due. An empty bag means all bags.
func (s *Service) NextDueCard(ctx context.Context, userID, bag string) (*domain.Card, error) {
	cards, err := s.store.DueCards(ctx, userID, bag, s.now(), 1)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}
	return &cards[0], nil
}

// DueCount holds the eligible-card count plus its display form, capped at
// the "100+" sentinel.
type DueCount struct {
	Count   int
	Display string
}

// DueCardCount counts eligible cards for a user, optionally scoped to a
// bag.
func (s *Service) DueCardCount(ctx context.Context, userID, bag string) (DueCount, error) {
	n, err := s.store.CountDue(ctx, userID, bag, s.now())
	if err != nil {
		return DueCount{}, err
	}
	dc := DueCount{Count: n, Display: fmt.Sprintf("%d", n)}
	if n > DueDisplayCap {
		dc.Display = fmt.Sprintf("%d+", DueDisplayCap)
	}
	return dc, nil
}

// NextNewCard returns the oldest never-reviewed card, for introducing new
// material. Returns (nil, nil) when none remain.
func (s *Service) NextNewCard(ctx context.Context, userID, bag string) (*domain.Card, error) {
	return s.store.NextNewCard(ctx, userID, bag)
}
