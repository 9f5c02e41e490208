// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/loesoe/cortex/internal/app"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
	"github.com/loesoe/cortex/internal/domain/aggregate"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/internal/domain/module"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// IngestMessage queues a chat message for async feature extraction.
	// The returned flag reports a duplicate message ID.
	IngestMessage(ctx context.Context, m model.Message) (model.Message, bool, error)

	// ScoreMessage extracts features synchronously without side effects.
	ScoreMessage(ctx context.Context, text string, history []string) model.FeatureVector

	// AppendEvent stores a raw behavioral event.
	AppendEvent(ctx context.Context, e model.Event) (int64, error)

	// Read operations expose the learning state.
	Events(ctx context.Context, q eventstore.Query) ([]model.Event, error)
	Summary(ctx context.Context, q eventstore.Query) (aggregate.Summary, error)
	Derive(ctx context.Context, q eventstore.Query) (service.DeriveReport, error)
	Patterns(ctx context.Context, q patternstore.Query) ([]patternstore.Record, int, error)
	RunModules(ctx context.Context, userID string) ([]module.Result, error)
	Status(ctx context.Context, userID string) service.StatusReport
	Feedback(ctx context.Context, userID, suggestionID, action string) float64
}

// DeriveReport mirrors the shape returned by derivation runs.
type DeriveReport = service.DeriveReport

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	eventsHandler   *EventsHandler
	messagesHandler *MessagesHandler
	learningHandler *LearningHandler
	modulesHandler  *ModulesHandler
	statusHandler   *StatusHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		eventsHandler:   NewEventsHandler(deps),
		messagesHandler: NewMessagesHandler(deps),
		learningHandler: NewLearningHandler(deps),
		modulesHandler:  NewModulesHandler(deps),
		statusHandler:   NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandleEvents, "events"))
	mux.HandleFunc("/messages", MetricsMiddleware(s.messagesHandler.HandlePostMessage, "messages"))
	mux.HandleFunc("/messages/score", MetricsMiddleware(s.messagesHandler.HandleScoreMessage, "messages_score"))
	mux.HandleFunc("/learning/summary", MetricsMiddleware(s.learningHandler.HandleGetSummary, "learning_summary"))
	mux.HandleFunc("/learning/derive", MetricsMiddleware(s.learningHandler.HandleDerive, "learning_derive"))
	mux.HandleFunc("/learning/patterns", MetricsMiddleware(s.learningHandler.HandleGetPatterns, "learning_patterns"))
	mux.HandleFunc("/learning/feedback", MetricsMiddleware(s.learningHandler.HandleFeedback, "learning_feedback"))
	mux.HandleFunc("/ml/run", MetricsMiddleware(s.modulesHandler.HandleRun, "ml_run"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
