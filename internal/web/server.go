// Package web exposes the review service over a JSON HTTP API. Timestamps
// cross this boundary as integer epoch milliseconds.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/cardwheel/cardwheel/internal/domain"
	"github.com/cardwheel/cardwheel/internal/fsrs"
	"github.com/cardwheel/cardwheel/internal/review"
	"github.com/cardwheel/cardwheel/internal/storage"
)

// Syncer triggers a reconciliation pass over all card sources.
type Syncer interface {
	Run(ctx context.Context) error
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	svc      *review.Service
	db       *storage.DB
	syncer   Syncer
	validate *validator.Validate
	logger   *slog.Logger
	router   *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(svc *review.Service, db *storage.DB, syncer Syncer, logger *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		db:       db,
		syncer:   syncer,
		validate: validator.New(),
		logger:   logger,
		router:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.HandleFunc("POST /api/reviews", s.handleSubmitReview)
	s.router.HandleFunc("GET /api/due/next", s.handleDueNext)
	s.router.HandleFunc("GET /api/due/count", s.handleDueCount)
	s.router.HandleFunc("GET /api/new/next", s.handleNewNext)
	s.router.HandleFunc("POST /api/cards/{id}/suspend", s.handleSuspendCard)
	s.router.HandleFunc("GET /api/parameters", s.handleGetParameters)
	s.router.HandleFunc("PUT /api/parameters", s.handlePutParameters)
	s.router.HandleFunc("GET /api/sources", s.handleListSources)
	s.router.HandleFunc("POST /api/sources", s.handleAddSource)
	s.router.HandleFunc("DELETE /api/sources/{id}", s.handleDeleteSource)
	s.router.HandleFunc("POST /api/sync", s.handleSync)
}

type submitReviewRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	CardID     string `json:"card_id" validate:"required"`
	Rating     int    `json:"rating" validate:"min=1,max=4"`
	DurationMs int    `json:"duration_ms" validate:"min=0"`
	SessionID  string `json:"session_id"`
	Cram       bool   `json:"cram"`
}

type submitReviewResponse struct {
	CardID        string  `json:"card_id"`
	NextReviewAt  int64   `json:"next_review_at"`
	State         string  `json:"state"`
	Stability     float64 `json:"stability"`
	Difficulty    float64 `json:"difficulty"`
	ScheduledDays int     `json:"scheduled_days"`
}

func (s *Server) handleSubmitReview(w http.ResponseWriter, r *http.Request) {
	var req submitReviewRequest
	if !s.decode(w, r, &req) {
		return
	}

	summary, err := s.svc.SubmitReview(r.Context(), review.SubmitRequest{
		UserID:     req.UserID,
		CardID:     req.CardID,
		Rating:     domain.Rating(req.Rating),
		DurationMs: req.DurationMs,
		SessionID:  req.SessionID,
		Cram:       req.Cram,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, submitReviewResponse{
		CardID:        summary.CardID,
		NextReviewAt:  summary.NextDue.UnixMilli(),
		State:         summary.State.String(),
		Stability:     summary.Stability,
		Difficulty:    summary.Difficulty,
		ScheduledDays: summary.ScheduledDays,
	})
}

type cardResponse struct {
	ID             string  `json:"id"`
	Bag            string  `json:"bag"`
	Question       string  `json:"question"`
	Answer         string  `json:"answer"`
	Context        string  `json:"context,omitempty"`
	State          string  `json:"state"`
	Due            int64   `json:"due"`
	Stability      float64 `json:"stability"`
	Difficulty     float64 `json:"difficulty"`
	Reps           int     `json:"reps"`
	Lapses         int     `json:"lapses"`
	ElapsedDays    *int    `json:"elapsed_days,omitempty"`
	Retrievability float64 `json:"retrievability"`
}

func toCardResponse(c *domain.Card, now time.Time) cardResponse {
	return cardResponse{
		ID:             c.ID,
		Bag:            c.Bag,
		Question:       c.Question,
		Answer:         c.Answer,
		Context:        c.Context,
		State:          c.State.String(),
		Due:            c.Due.UnixMilli(),
		Stability:      c.Stability,
		Difficulty:     c.Difficulty,
		Reps:           c.Reps,
		Lapses:         c.Lapses,
		ElapsedDays:    c.ElapsedDays,
		Retrievability: fsrs.Engine{}.Retrievability(*c, now),
	}
}

func (s *Server) handleDueNext(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	card, err := s.svc.NextDueCard(r.Context(), userID, r.URL.Query().Get("bag"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if card == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "NO_CARD_AVAILABLE"})
		return
	}
	s.writeJSON(w, http.StatusOK, toCardResponse(card, time.Now()))
}

func (s *Server) handleDueCount(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	dc, err := s.svc.DueCardCount(r.Context(), userID, r.URL.Query().Get("bag"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   dc.Count,
		"display": dc.Display,
	})
}

func (s *Server) handleNewNext(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	card, err := s.svc.NextNewCard(r.Context(), userID, r.URL.Query().Get("bag"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if card == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "NO_CARD_AVAILABLE"})
		return
	}
	s.writeJSON(w, http.StatusOK, toCardResponse(card, time.Now()))
}

type suspendRequest struct {
	UserID    string `json:"user_id" validate:"required"`
	Suspended bool   `json:"suspended"`
}

func (s *Server) handleSuspendCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	var req suspendRequest
	if !s.decode(w, r, &req) {
		return
	}
	found, err := s.db.SetSuspended(r.Context(), req.UserID, cardID, req.Suspended)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		http.Error(w, "card not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type parametersPayload struct {
	UserID              string    `json:"user_id" validate:"required"`
	Weights             []float64 `json:"weights" validate:"required"`
	RequestRetention    float64   `json:"request_retention" validate:"gt=0,lt=1"`
	MaximumIntervalDays int       `json:"maximum_interval_days" validate:"min=1"`
	EnableFuzz          bool      `json:"enable_fuzz"`
	EnableShortTerm     bool      `json:"enable_short_term"`
	LearningStepsSecs   []int64   `json:"learning_steps_secs"`
	RelearningStepsSecs []int64   `json:"relearning_steps_secs"`
}

func (s *Server) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	p, err := s.db.GetParameters(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if p == nil {
		http.Error(w, "no scheduling parameters for user", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, parametersPayload{
		UserID:              userID,
		Weights:             p.Weights,
		RequestRetention:    p.RequestRetention,
		MaximumIntervalDays: p.MaximumIntervalDays,
		EnableFuzz:          p.EnableFuzz,
		EnableShortTerm:     p.EnableShortTerm,
		LearningStepsSecs:   stepsToSecs(p.LearningSteps),
		RelearningStepsSecs: stepsToSecs(p.RelearningSteps),
	})
}

func (s *Server) handlePutParameters(w http.ResponseWriter, r *http.Request) {
	var req parametersPayload
	if !s.decode(w, r, &req) {
		return
	}
	p := fsrs.Parameters{
		Weights:             req.Weights,
		RequestRetention:    req.RequestRetention,
		MaximumIntervalDays: req.MaximumIntervalDays,
		EnableFuzz:          req.EnableFuzz,
		EnableShortTerm:     req.EnableShortTerm,
		LearningSteps:       secsToSteps(req.LearningStepsSecs),
		RelearningSteps:     secsToSteps(req.RelearningStepsSecs),
	}
	if err := s.db.PutParameters(r.Context(), req.UserID, p); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sourceRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Path   string `json:"path" validate:"required"`
	Bag    string `json:"bag"`
}

type sourceResponse struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	Bag         string `json:"bag"`
	LastScanned *int64 `json:"last_scanned,omitempty"`
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	sources, err := s.db.SourcesByUser(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]sourceResponse, 0, len(sources))
	for _, src := range sources {
		resp := sourceResponse{
			ID: src.ID, UserID: src.UserID, Path: src.Path, Type: src.Type, Bag: src.Bag,
		}
		if src.LastScanned.Valid {
			ms := src.LastScanned.Time.UnixMilli()
			resp.LastScanned = &ms
		}
		out = append(out, resp)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if !s.decode(w, r, &req) {
		return
	}
	id, err := s.db.InsertSource(r.Context(), storage.Source{
		UserID: req.UserID,
		Path:   req.Path,
		Type:   sourceType(req.Path),
		Bag:    req.Bag,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid source id", http.StatusBadRequest)
		return
	}
	if err := s.db.DeleteSource(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.syncer.Run(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sourceType(path string) string {
	if strings.HasSuffix(path, ".git") || strings.HasPrefix(path, "git@") ||
		strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://") {
		return storage.SourceTypeGit
	}
	return storage.SourceTypeLocal
}

// decode unmarshals and validates a JSON request body, writing the error
// response itself when the input is bad.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, review.ErrConfigurationMissing):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, fsrs.ErrInvalidRating), errors.Is(err, fsrs.ErrInvalidParameters):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, review.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func stepsToSecs(steps []time.Duration) []int64 {
	out := make([]int64, len(steps))
	for i, d := range steps {
		out[i] = int64(d / time.Second)
	}
	return out
}

func secsToSteps(secs []int64) []time.Duration {
	out := make([]time.Duration, len(secs))
	for i, s := range secs {
		out[i] = time.Duration(s) * time.Second
	}
	return out
}
