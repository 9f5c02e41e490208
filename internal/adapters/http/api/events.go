// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/domain/model"
)

// EventsHandler handles raw event ingestion.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// eventRequest mirrors the JSON schema for POST /events.
type eventRequest struct {
	UserID     string      `json:"user_id"`
	SessionID  string      `json:"session_id"`
	EventType  string      `json:"event_type"`
	Source     string      `json:"source"`
	Confidence *float64    `json:"confidence"`
	Tags       []string    `json:"tags"`
	Payload    model.Value `json:"payload"`
}

func (e eventRequest) validate() error {
	if strings.TrimSpace(e.EventType) == "" {
		return errors.New("missing event_type")
	}
	if e.Confidence != nil && (*e.Confidence < 0 || *e.Confidence > 1) {
		return errors.New("confidence must be within [0,1]")
	}
	return nil
}

type eventResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type eventListResponse struct {
	Items []model.Event `json:"items"`
	Count int           `json:"count"`
}

// HandleEvents routes /events by method: POST stores an event, GET lists
// events in the query window.
func (h *EventsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.HandlePostEvent(w, r)
	case http.MethodGet:
		h.HandleGetEvents(w, r)
	default:
		http.NotFound(w, r)
	}
}

// HandleGetEvents handles GET /events requests with the shared
// window/filter parameters.
func (h *EventsHandler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_events"
	q, err := eventQueryFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	events, err := h.deps.Events(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, eventListResponse{Items: events, Count: len(events)})
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	id, err := h.deps.AppendEvent(r.Context(), model.Event{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		EventType:  req.EventType,
		Source:     req.Source,
		Confidence: req.Confidence,
		Tags:       req.Tags,
		Payload:    req.Payload,
	})
	if err != nil {
		if errors.Is(err, eventstore.ErrInvalidEvent) {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	writeJSON(w, http.StatusCreated, eventResponse{ID: id, Status: "stored"})
}
