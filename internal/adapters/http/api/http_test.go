package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/adapters/http/api"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
	service "github.com/loesoe/cortex/internal/app"
	"github.com/loesoe/cortex/internal/domain/aggregate"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/internal/domain/module"
)

// stubDeps is a canned Dependencies implementation recording the inputs
// handlers pass down.
type stubDeps struct {
	ingestErr       error
	ingestDuplicate bool

	appendErr error
	lastEvent model.Event

	eventsQuery  eventstore.Query
	summaryQuery eventstore.Query
	deriveQuery  eventstore.Query
	patternQuery patternstore.Query

	feedbackAction string
}

func (s *stubDeps) IngestMessage(ctx context.Context, m model.Message) (model.Message, bool, error) {
	if m.ID == "" {
		m.ID = "generated-id"
	}
	return m, s.ingestDuplicate, s.ingestErr
}

func (s *stubDeps) ScoreMessage(ctx context.Context, text string, history []string) model.FeatureVector {
	return model.FeatureVector{
		Version: model.FeatureVersion,
		Intent:  model.IntentScore{Label: "crypto", Confidence: 0.6},
	}
}

func (s *stubDeps) AppendEvent(ctx context.Context, e model.Event) (int64, error) {
	if s.appendErr != nil {
		return 0, s.appendErr
	}
	s.lastEvent = e
	return 7, nil
}

func (s *stubDeps) Events(ctx context.Context, q eventstore.Query) ([]model.Event, error) {
	s.eventsQuery = q
	return []model.Event{{ID: 1, EventType: "login"}}, nil
}

func (s *stubDeps) Summary(ctx context.Context, q eventstore.Query) (aggregate.Summary, error) {
	s.summaryQuery = q
	return aggregate.Summary{Total: 3}, nil
}

func (s *stubDeps) Derive(ctx context.Context, q eventstore.Query) (service.DeriveReport, error) {
	s.deriveQuery = q
	return service.DeriveReport{EventsConsidered: 3, Created: 1}, nil
}

func (s *stubDeps) Patterns(ctx context.Context, q patternstore.Query) ([]patternstore.Record, int, error) {
	s.patternQuery = q
	if q.OrderBy != "" && q.OrderBy != patternstore.OrderConfidence {
		return nil, 0, patternstore.ErrInvalidQuery
	}
	return []patternstore.Record{{ID: 1}}, 1, nil
}

func (s *stubDeps) RunModules(ctx context.Context, userID string) ([]module.Result, error) {
	return []module.Result{{Module: "dummy_score", Status: module.StatusOK}}, nil
}

func (s *stubDeps) Status(ctx context.Context, userID string) service.StatusReport {
	return service.StatusReport{Modules: []string{"dummy_score"}}
}

func (s *stubDeps) Feedback(ctx context.Context, userID, suggestionID, action string) float64 {
	s.feedbackAction = action
	return 0.5
}

func newTestServer(deps *stubDeps) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps).Register(context.Background(), mux)
	return mux
}

func doJSON(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestHandlePostEvent(t *testing.T) {
	Convey("Given the API wired to stub dependencies", t, func() {
		deps := &stubDeps{}
		mux := newTestServer(deps)

		Convey("When posting a valid event", func() {
			rec := doJSON(mux, http.MethodPost, "/events",
				`{"user_id":"u1","event_type":"login","tags":["auth"],"confidence":0.9}`)

			Convey("Then it is stored with 201", func() {
				So(rec.Code, ShouldEqual, http.StatusCreated)

				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["id"], ShouldEqual, 7)
				So(resp["status"], ShouldEqual, "stored")
				So(deps.lastEvent.EventType, ShouldEqual, "login")
			})
		})

		Convey("When the body is not JSON", func() {
			rec := doJSON(mux, http.MethodPost, "/events", `{nope`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the event type is missing", func() {
			rec := doJSON(mux, http.MethodPost, "/events", `{"user_id":"u1"}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the confidence is out of range", func() {
			rec := doJSON(mux, http.MethodPost, "/events",
				`{"event_type":"login","confidence":1.5}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the store rejects the event", func() {
			deps.appendErr = eventstore.ErrInvalidEvent
			rec := doJSON(mux, http.MethodPost, "/events", `{"event_type":"login"}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When listing events with filters", func() {
			rec := doJSON(mux, http.MethodGet, "/events?user_id=u1&event_type=login&window_minutes=60", "")

			Convey("Then the stored events come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.eventsQuery.UserID, ShouldEqual, "u1")
				So(deps.eventsQuery.EventType, ShouldEqual, "login")
				So(deps.eventsQuery.WindowMinutes, ShouldEqual, 60)

				var resp struct {
					Items []model.Event `json:"items"`
					Count int           `json:"count"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Count, ShouldEqual, 1)
				So(resp.Items[0].EventType, ShouldEqual, "login")
			})
		})

		Convey("When listing with a malformed window", func() {
			rec := doJSON(mux, http.MethodGet, "/events?window_minutes=soon", "")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When using an unsupported method", func() {
			rec := doJSON(mux, http.MethodDelete, "/events", "")

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandlePostMessage(t *testing.T) {
	Convey("Given the API wired to stub dependencies", t, func() {
		deps := &stubDeps{}
		mux := newTestServer(deps)

		Convey("When posting a fresh message", func() {
			rec := doJSON(mux, http.MethodPost, "/messages",
				`{"user_id":"u1","text":"hoi"}`)

			Convey("Then it is accepted with 202", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)

				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["id"], ShouldEqual, "generated-id")
				So(resp["status"], ShouldEqual, "accepted")
				So(resp["duplicate"], ShouldEqual, false)
			})
		})

		Convey("When the message is a duplicate", func() {
			deps.ingestDuplicate = true
			rec := doJSON(mux, http.MethodPost, "/messages",
				`{"id":"msg-1","user_id":"u1","text":"hoi"}`)

			Convey("Then it acknowledges with 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["status"], ShouldEqual, "duplicate")
				So(resp["duplicate"], ShouldEqual, true)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.ingestErr = service.ErrBackpressure
			rec := doJSON(mux, http.MethodPost, "/messages",
				`{"user_id":"u1","text":"hoi"}`)

			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
		})

		Convey("When the pipeline is down", func() {
			deps.ingestErr = service.ErrNotStarted
			rec := doJSON(mux, http.MethodPost, "/messages",
				`{"user_id":"u1","text":"hoi"}`)

			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("When the user ID is missing", func() {
			rec := doJSON(mux, http.MethodPost, "/messages", `{"text":"hoi"}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleScoreMessage(t *testing.T) {
	Convey("Given the API wired to stub dependencies", t, func() {
		mux := newTestServer(&stubDeps{})

		Convey("When scoring a message", func() {
			rec := doJSON(mux, http.MethodPost, "/messages/score", `{"text":"wat is de btc entry?"}`)

			Convey("Then the feature vector comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var fv model.FeatureVector
				So(json.Unmarshal(rec.Body.Bytes(), &fv), ShouldBeNil)
				So(fv.Intent.Label, ShouldEqual, "crypto")
			})
		})
	})
}

func TestHandleLearning(t *testing.T) {
	Convey("Given the API wired to stub dependencies", t, func() {
		deps := &stubDeps{}
		mux := newTestServer(deps)

		Convey("When requesting a summary with filters", func() {
			rec := doJSON(mux, http.MethodGet,
				"/learning/summary?user_id=u1&window_minutes=60&tag=auth", "")

			Convey("Then the filters reach the query", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.summaryQuery.UserID, ShouldEqual, "u1")
				So(deps.summaryQuery.WindowMinutes, ShouldEqual, 60)
				So(deps.summaryQuery.Tag, ShouldEqual, "auth")
			})
		})

		Convey("When the window parameter is garbage", func() {
			rec := doJSON(mux, http.MethodGet, "/learning/summary?window_minutes=soon", "")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the limit exceeds the maximum", func() {
			rec := doJSON(mux, http.MethodGet, "/learning/summary?limit=5000", "")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When triggering a derivation run", func() {
			rec := doJSON(mux, http.MethodPost, "/learning/derive?user_id=u1", "")

			Convey("Then the report comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.deriveQuery.UserID, ShouldEqual, "u1")

				var report service.DeriveReport
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.Created, ShouldEqual, 1)
			})
		})

		Convey("When listing patterns with filters", func() {
			rec := doJSON(mux, http.MethodGet,
				"/learning/patterns?subject=u1&pattern_type=preference&min_confidence=0.5&limit=10&offset=5", "")

			Convey("Then the query is parsed faithfully", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.patternQuery.Subject, ShouldEqual, "u1")
				So(deps.patternQuery.Type, ShouldEqual, "preference")
				So(deps.patternQuery.MinConfidence, ShouldEqual, 0.5)
				So(deps.patternQuery.Limit, ShouldEqual, 10)
				So(deps.patternQuery.Offset, ShouldEqual, 5)
			})
		})

		Convey("When the pattern query is rejected downstream", func() {
			rec := doJSON(mux, http.MethodGet, "/learning/patterns?order_by=color", "")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the min_confidence parameter is garbage", func() {
			rec := doJSON(mux, http.MethodGet, "/learning/patterns?min_confidence=high", "")

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When posting feedback", func() {
			rec := doJSON(mux, http.MethodPost, "/learning/feedback",
				`{"user_id":"u1","suggestion_id":"sugg-1","action":"accept"}`)

			Convey("Then the adjusted score comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(deps.feedbackAction, ShouldEqual, "accept")

				var resp map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp["suggestion_id"], ShouldEqual, "sugg-1")
				So(resp["score"], ShouldEqual, 0.5)
			})
		})

		Convey("When feedback misses identifiers", func() {
			rec := doJSON(mux, http.MethodPost, "/learning/feedback", `{"action":"accept"}`)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleModulesAndStatus(t *testing.T) {
	Convey("Given the API wired to stub dependencies", t, func() {
		mux := newTestServer(&stubDeps{})

		Convey("When running the modules", func() {
			rec := doJSON(mux, http.MethodGet, "/ml/run?user_id=u1", "")

			Convey("Then the results come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var resp struct {
					Results []module.Result `json:"results"`
				}
				So(json.Unmarshal(rec.Body.Bytes(), &resp), ShouldBeNil)
				So(resp.Results, ShouldHaveLength, 1)
				So(resp.Results[0].Module, ShouldEqual, "dummy_score")
			})
		})

		Convey("When requesting the status", func() {
			rec := doJSON(mux, http.MethodGet, "/status?user_id=u1", "")

			Convey("Then the snapshot comes back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)

				var report service.StatusReport
				So(json.Unmarshal(rec.Body.Bytes(), &report), ShouldBeNil)
				So(report.Modules, ShouldResemble, []string{"dummy_score"})
			})
		})

		Convey("When probing the health endpoint", func() {
			rec := doJSON(mux, http.MethodGet, "/healthz", "")

			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, `"ok"`)
		})
	})
}
