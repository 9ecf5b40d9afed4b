package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cardwheel/cardwheel/internal/fsrs"
)

// GetParameters retrieves a user's scheduling parameters.
// Returns (nil, nil) when the user has no parameters row.
func (db *DB) GetParameters(ctx context.Context, userID string) (*fsrs.Parameters, error) {
	var (
		weightsJSON    string
		retention      float64
		maxIvl         int
		enableFuzz     bool
		enableShort    bool
		learningJSON   string
		relearningJSON string
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT weights, request_retention, maximum_interval_days,
		       enable_fuzz, enable_short_term, learning_steps, relearning_steps
		FROM scheduler_params WHERE user_id = ?
	`, userID).Scan(&weightsJSON, &retention, &maxIvl,
		&enableFuzz, &enableShort, &learningJSON, &relearningJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get parameters for user %s: %w", userID, err)
	}

	p := fsrs.Parameters{
		RequestRetention:    retention,
		MaximumIntervalDays: maxIvl,
		EnableFuzz:          enableFuzz,
		EnableShortTerm:     enableShort,
	}
	if err := json.Unmarshal([]byte(weightsJSON), &p.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights for user %s: %w", userID, err)
	}
	if p.LearningSteps, err = decodeSteps(learningJSON); err != nil {
		return nil, fmt.Errorf("failed to decode learning steps for user %s: %w", userID, err)
	}
	if p.RelearningSteps, err = decodeSteps(relearningJSON); err != nil {
		return nil, fmt.Errorf("failed to decode relearning steps for user %s: %w", userID, err)
	}
	return &p, nil
}

// PutParameters inserts or replaces a user's scheduling parameters.
// The bundle is validated before it is written.
func (db *DB) PutParameters(ctx context.Context, userID string, p fsrs.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	weightsJSON, err := json.Marshal(p.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights for user %s: %w", userID, err)
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO scheduler_params
			(user_id, weights, request_retention, maximum_interval_days,
			 enable_fuzz, enable_short_term, learning_steps, relearning_steps, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			weights = excluded.weights,
			request_retention = excluded.request_retention,
			maximum_interval_days = excluded.maximum_interval_days,
			enable_fuzz = excluded.enable_fuzz,
			enable_short_term = excluded.enable_short_term,
			learning_steps = excluded.learning_steps,
			relearning_steps = excluded.relearning_steps,
			updated_at = excluded.updated_at
	`, userID, string(weightsJSON), p.RequestRetention, p.MaximumIntervalDays,
		p.EnableFuzz, p.EnableShortTerm,
		encodeSteps(p.LearningSteps), encodeSteps(p.RelearningSteps), time.Now())
	if err != nil {
		return fmt.Errorf("failed to put parameters for user %s: %w", userID, err)
	}
	return nil
}

// Steps are stored as a JSON array of whole seconds.
func encodeSteps(steps []time.Duration) string {
	secs := make([]int64, len(steps))
	for i, d := range steps {
		secs[i] = int64(d / time.Second)
	}
	out, _ := json.Marshal(secs)
	return string(out)
}

func decodeSteps(raw string) ([]time.Duration, error) {
	var secs []int64
	if err := json.Unmarshal([]byte(raw), &secs); err != nil {
		return nil, err
	}
	steps := make([]time.Duration, len(secs))
	for i, s := range secs {
		steps[i] = time.Duration(s) * time.Second
	}
	return steps, nil
}
