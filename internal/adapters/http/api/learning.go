// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
)

// LearningHandler exposes the aggregation, derivation, pattern listing and
// feedback surfaces.
type LearningHandler struct {
	deps Dependencies
}

// NewLearningHandler creates a new learning handler.
func NewLearningHandler(deps Dependencies) *LearningHandler {
	return &LearningHandler{deps: deps}
}

// HandleGetSummary handles GET /learning/summary requests.
func (h *LearningHandler) HandleGetSummary(w http.ResponseWriter, r *http.Request) {
	const op = "api.learning_summary"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q, err := eventQueryFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	summary, err := h.deps.Summary(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// HandleDerive handles POST /learning/derive requests.
func (h *LearningHandler) HandleDerive(w http.ResponseWriter, r *http.Request) {
	const op = "api.learning_derive"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	q, err := eventQueryFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	report, err := h.deps.Derive(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type patternsResponse struct {
	Items []patternstore.Record `json:"items"`
	Total int                   `json:"total"`
}

// HandleGetPatterns handles GET /learning/patterns requests.
func (h *LearningHandler) HandleGetPatterns(w http.ResponseWriter, r *http.Request) {
	const op = "api.learning_patterns"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := patternstore.Query{
		Subject:   r.URL.Query().Get("subject"),
		Type:      r.URL.Query().Get("pattern_type"),
		OrderBy:   r.URL.Query().Get("order_by"),
		Direction: r.URL.Query().Get("direction"),
	}
	if v := r.URL.Query().Get("min_confidence"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		q.MinConfidence = f
	}
	var err error
	if q.Limit, err = intParam(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if q.Offset, err = intParam(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	items, total, err := h.deps.Patterns(r.Context(), q)
	if err != nil {
		if errors.Is(err, patternstore.ErrInvalidQuery) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusOK, patternsResponse{Items: items, Total: total})
}

// feedbackRequest mirrors the JSON schema for POST /learning/feedback.
type feedbackRequest struct {
	UserID       string `json:"user_id"`
	SuggestionID string `json:"suggestion_id"`
	Action       string `json:"action"`
}

type feedbackResponse struct {
	SuggestionID string  `json:"suggestion_id"`
	Score        float64 `json:"score"`
}

// HandleFeedback handles POST /learning/feedback requests.
func (h *LearningHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	const op = "api.learning_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.SuggestionID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	score := h.deps.Feedback(r.Context(), req.UserID, req.SuggestionID, req.Action)
	writeJSON(w, http.StatusOK, feedbackResponse{SuggestionID: req.SuggestionID, Score: score})
}

// eventQueryFrom reads the shared window/filter query parameters.
func eventQueryFrom(r *http.Request) (eventstore.Query, error) {
	q := eventstore.Query{
		UserID:    r.URL.Query().Get("user_id"),
		SessionID: r.URL.Query().Get("session_id"),
		EventType: r.URL.Query().Get("event_type"),
		Tag:       r.URL.Query().Get("tag"),
	}
	var err error
	if q.WindowMinutes, err = intParam(r, "window_minutes"); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(r, "limit"); err != nil {
		return q, err
	}
	if q.Limit > eventstore.MaxFetchLimit {
		return q, errors.New("limit exceeds maximum")
	}
	return q, nil
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New("invalid " + name)
	}
	if n < 0 {
		return 0, errors.New(name + " must not be negative")
	}
	return n, nil
}
