// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	service "github.com/loesoe/cortex/internal/app"
	"github.com/loesoe/cortex/internal/domain/model"
)

// MessagesHandler handles chat message ingestion and synchronous scoring.
type MessagesHandler struct {
	deps Dependencies
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(deps Dependencies) *MessagesHandler {
	return &MessagesHandler{deps: deps}
}

// messageRequest mirrors the JSON schema for POST /messages.
type messageRequest struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	Text      string   `json:"text"`
	History   []string `json:"history"`
}

func (m messageRequest) validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return errors.New("missing user_id")
	}
	return nil
}

type messageAckResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// HandlePostMessage handles POST /messages requests.
func (h *MessagesHandler) HandlePostMessage(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_message"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	msg, duplicate, err := h.deps.IngestMessage(r.Context(), model.Message{
		ID:        req.ID,
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Text:      req.Text,
		History:   req.History,
	})
	if err != nil {
		if errors.Is(err, service.ErrBackpressure) {
			writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusOK, messageAckResponse{ID: msg.ID, Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, messageAckResponse{ID: msg.ID, Status: "accepted", Duplicate: false})
}

// HandleScoreMessage handles POST /messages/score requests. It extracts
// features synchronously without queuing anything.
func (h *MessagesHandler) HandleScoreMessage(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_message"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	fv := h.deps.ScoreMessage(r.Context(), req.Text, req.History)
	writeJSON(w, http.StatusOK, fv)
}
