package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/adapters/patternstore"
	service "github.com/loesoe/cortex/internal/app"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/internal/domain/module"
	"github.com/loesoe/cortex/pkg/clock"
)

func newService(fake *clock.Fake) *service.Service {
	return service.New(
		service.WithClock(fake),
		service.WithWorkerCount(2),
		service.WithQueueSize(64),
	)
}

func TestLifecycle(t *testing.T) {
	Convey("Given a fresh service", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		Convey("When stopping before starting", func() {
			So(errors.Is(svc.Stop(ctx), service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When starting twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(errors.Is(svc.Start(ctx), service.ErrAlreadyStarted), ShouldBeTrue)

			So(svc.Stop(ctx), ShouldBeNil)
		})

		Convey("When starting and stopping cleanly", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then a second stop reports not started", func() {
				So(errors.Is(svc.Stop(ctx), service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestIngestMessage(t *testing.T) {
	Convey("Given a started service", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		Convey("When a message without an ID is ingested", func() {
			accepted, duplicate, err := svc.IngestMessage(ctx, model.Message{UserID: "u1", Text: "hoi"})

			Convey("Then an ID is assigned and the message is accepted", func() {
				So(err, ShouldBeNil)
				So(duplicate, ShouldBeFalse)
				So(accepted.ID, ShouldNotBeBlank)
			})
		})

		Convey("When the same message ID arrives twice", func() {
			m := model.Message{ID: "msg-1", UserID: "u1", Text: "hoi"}
			_, duplicate, err := svc.IngestMessage(ctx, m)
			So(err, ShouldBeNil)
			So(duplicate, ShouldBeFalse)

			_, duplicate, err = svc.IngestMessage(ctx, m)
			So(err, ShouldBeNil)
			So(duplicate, ShouldBeTrue)
		})
	})

	Convey("Given a service that was never started", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)

		Convey("When a message is ingested", func() {
			_, _, err := svc.IngestMessage(context.Background(), model.Message{UserID: "u1", Text: "hoi"})

			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestScoreMessage(t *testing.T) {
	Convey("Given a service", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)

		Convey("When scoring a message synchronously", func() {
			fv := svc.ScoreMessage(context.Background(), "wat is de btc entry?", nil)

			Convey("Then the vector is computed without persisting anything", func() {
				So(fv.Intent.Label, ShouldEqual, "crypto")
				So(fv.Version, ShouldEqual, model.FeatureVersion)

				events, err := svc.Events(context.Background(), eventstore.Query{})
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})
		})
	})
}

func TestAppendAndSummary(t *testing.T) {
	Convey("Given a service with a fake clock", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		Convey("When events are appended", func() {
			id, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "login", Tags: []string{"auth"}})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, 1)

			_, err = svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "ask_explain"})
			So(err, ShouldBeNil)

			Convey("Then the summary reflects the window", func() {
				summary, err := svc.Summary(ctx, eventstore.Query{UserID: "u1"})
				So(err, ShouldBeNil)
				So(summary.Total, ShouldEqual, 2)
				So(summary.TopEventTypes, ShouldHaveLength, 2)
			})

			Convey("Then fetching returns them newest first", func() {
				events, err := svc.Events(ctx, eventstore.Query{})
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 2)
				So(events[0].EventType, ShouldEqual, "ask_explain")
			})
		})

		Convey("When an invalid event is appended", func() {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1"})

			So(errors.Is(err, eventstore.ErrInvalidEvent), ShouldBeTrue)
		})
	})
}

func TestLoginLogoutEvents(t *testing.T) {
	Convey("Given a service with a fake clock", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		Convey("When a login event is appended", func() {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "login"})
			So(err, ShouldBeNil)

			Convey("Then the session recency feeds the usage score", func() {
				report := svc.Status(ctx, "u1")
				So(report.Score.Usage, ShouldAlmostEqual, 13.0, 1e-9)
			})
		})

		Convey("When a logout event arrives long after the login", func() {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "login"})
			So(err, ShouldBeNil)

			fake.Advance(30 * time.Hour)
			_, err = svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "logout"})
			So(err, ShouldBeNil)

			Convey("Then the logout refreshes the recency bucket", func() {
				report := svc.Status(ctx, "u1")
				So(report.Score.Usage, ShouldAlmostEqual, 13.0, 1e-9)
			})
		})
	})
}

func TestDerive(t *testing.T) {
	Convey("Given a service holding four explain requests from one user", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "ask_explain"})
			So(err, ShouldBeNil)
		}

		Convey("When a derivation run executes", func() {
			report, err := svc.Derive(ctx, eventstore.Query{})

			Convey("Then one preference pattern is created", func() {
				So(err, ShouldBeNil)
				So(report.EventsConsidered, ShouldEqual, 4)
				So(report.Created, ShouldEqual, 1)
				So(report.Updated, ShouldEqual, 0)
				So(report.Patterns, ShouldHaveLength, 1)
				So(report.Patterns[0].Key, ShouldEqual, "explain_level")
				So(report.Patterns[0].Confidence, ShouldEqual, 0.55)
			})

			Convey("And a second run updates instead of creating", func() {
				So(err, ShouldBeNil)

				second, err := svc.Derive(ctx, eventstore.Query{})
				So(err, ShouldBeNil)
				So(second.Created, ShouldEqual, 0)
				So(second.Updated, ShouldEqual, 1)
			})

			Convey("And the pattern is queryable afterwards", func() {
				So(err, ShouldBeNil)

				records, total, err := svc.Patterns(ctx, patternstore.Query{Subject: model.SubjectUser})
				So(err, ShouldBeNil)
				So(total, ShouldEqual, 1)
				So(records[0].Type, ShouldEqual, "preference")
			})
		})

		Convey("When the window excludes every event", func() {
			fake.Advance(48 * time.Hour)
			report, err := svc.Derive(ctx, eventstore.Query{WindowMinutes: 60})

			So(err, ShouldBeNil)
			So(report.EventsConsidered, ShouldEqual, 0)
			So(report.Patterns, ShouldBeEmpty)
		})
	})
}

func TestRunModules(t *testing.T) {
	Convey("Given a service with a derived pattern snapshot", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		for i := 0; i < 4; i++ {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "ask_explain"})
			So(err, ShouldBeNil)
		}
		_, err := svc.Derive(ctx, eventstore.Query{})
		So(err, ShouldBeNil)

		Convey("When all modules run", func() {
			results, err := svc.RunModules(ctx, "u1")

			Convey("Then every default module reports in name order", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 3)
				So(results[0].Module, ShouldEqual, "dummy_score")
				So(results[1].Module, ShouldEqual, "explain_preference_score")
				So(results[2].Module, ShouldEqual, "patterns_volume_anomaly")
				for _, r := range results {
					So(r.Status, ShouldNotEqual, module.StatusError)
				}
			})
		})
	})
}

func TestFeedbackAndPreferences(t *testing.T) {
	Convey("Given a service", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		Convey("When feedback is applied", func() {
			So(svc.Feedback(ctx, "u1", "sugg-1", "accept"), ShouldEqual, 0.5)
			So(svc.Feedback(ctx, "u1", "sugg-1", "reject"), ShouldEqual, 0)
			So(svc.Feedback(ctx, "u1", "sugg-1", "accept"), ShouldEqual, 0.5)
		})

		Convey("When a preference is recorded", func() {
			svc.AddPreference(ctx, "u1", "korte antwoorden")

			report := svc.Status(ctx, "u1")
			So(report.SelfLearning.PreferencesCount, ShouldEqual, 1)
		})
	})
}

func TestStatus(t *testing.T) {
	Convey("Given a cold service with no data", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()

		Convey("When status is requested", func() {
			report := svc.Status(ctx, "u1")

			Convey("Then empty subsystems warn and the queue is off", func() {
				statuses := map[string]string{}
				for _, st := range report.Subsystems {
					statuses[st.Key] = st.Status
				}
				So(statuses["event_store"], ShouldEqual, "warn")
				So(statuses["pattern_store"], ShouldEqual, "warn")
				So(statuses["ingest_queue"], ShouldEqual, "off")
				So(statuses["module_registry"], ShouldEqual, "ok")
				So(statuses["zelflerend_geheugen"], ShouldEqual, "warn")

				So(report.SelfLearning.HasData, ShouldBeFalse)
				So(report.Modules, ShouldResemble, []string{
					"dummy_score", "explain_preference_score", "patterns_volume_anomaly",
				})
			})
		})
	})

	Convey("Given a warm service with events, patterns and activity", t, func() {
		fake := clock.NewFake(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
		svc := newService(fake)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop(ctx)

		for i := 0; i < 4; i++ {
			_, err := svc.AppendEvent(ctx, model.Event{UserID: "u1", EventType: "ask_explain"})
			So(err, ShouldBeNil)
		}
		_, err := svc.Derive(ctx, eventstore.Query{})
		So(err, ShouldBeNil)
		svc.Feedback(ctx, "u1", "sugg-1", "accept")
		svc.MarkLogin("u1")

		Convey("When status is requested", func() {
			report := svc.Status(ctx, "u1")

			Convey("Then every subsystem is healthy and the score is populated", func() {
				for _, st := range report.Subsystems {
					So(st.Status, ShouldEqual, "ok")
				}
				So(report.SelfLearning.HasData, ShouldBeTrue)
				So(report.Score.Subsystems, ShouldEqual, 35)
				So(report.Score.Total, ShouldBeGreaterThan, 35)
			})
		})
	})
}
