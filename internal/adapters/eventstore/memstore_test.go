package eventstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/loesoe/cortex/internal/adapters/eventstore"
	"github.com/loesoe/cortex/internal/domain/model"
	"github.com/loesoe/cortex/pkg/clock"
)

func TestAppend(t *testing.T) {
	Convey("Given an empty store with a fake clock", t, func() {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		fake := clock.NewFake(now)
		s := eventstore.NewMemStore(eventstore.WithClock(fake))
		ctx := context.Background()

		Convey("When appending a valid event", func() {
			id, err := s.Append(ctx, model.Event{
				UserID:    "u1",
				EventType: "message",
				Tags:      []string{" intent:crypto ", "", "emotion:neutraal", "intent:crypto"},
			})

			Convey("Then the store assigns identity and deduplicates tags", func() {
				So(err, ShouldBeNil)
				So(id, ShouldEqual, 1)

				events, err := s.Fetch(ctx, eventstore.Query{})
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].ID, ShouldEqual, 1)
				So(events[0].CreatedAt, ShouldResemble, now)
				So(events[0].Source, ShouldEqual, model.DefaultEventSource)
				So(events[0].Tags, ShouldResemble, []string{"intent:crypto", "emotion:neutraal"})
			})
		})

		Convey("When appending sequentially", func() {
			first, _ := s.Append(ctx, model.Event{EventType: "a"})
			second, _ := s.Append(ctx, model.Event{EventType: "b"})

			So(second, ShouldEqual, first+1)
		})

		Convey("When the event type is missing", func() {
			_, err := s.Append(ctx, model.Event{})

			So(errors.Is(err, eventstore.ErrInvalidEvent), ShouldBeTrue)
		})

		Convey("When the confidence is out of range", func() {
			bad := 1.5
			_, err := s.Append(ctx, model.Event{EventType: "x", Confidence: &bad})

			So(errors.Is(err, eventstore.ErrInvalidEvent), ShouldBeTrue)
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.Append(ctx, model.Event{EventType: "x"})

			So(errors.Is(err, eventstore.ErrStoreClosed), ShouldBeTrue)
		})
	})
}

func TestFetch(t *testing.T) {
	Convey("Given a store with a spread of events", t, func() {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		fake := clock.NewFake(now.Add(-3 * time.Hour))
		s := eventstore.NewMemStore(eventstore.WithClock(fake))
		ctx := context.Background()

		mustAppend := func(e model.Event) {
			_, err := s.Append(ctx, e)
			So(err, ShouldBeNil)
		}

		mustAppend(model.Event{EventType: "old", UserID: "u1"})
		fake.Advance(time.Hour)
		mustAppend(model.Event{EventType: "message", UserID: "u1", SessionID: "s1", Tags: []string{"tool:search"}})
		fake.Advance(time.Hour)
		mustAppend(model.Event{EventType: "message", UserID: "u2", SessionID: "s2"})
		fake.Advance(time.Hour) // clock now at "now"

		Convey("When fetching without filters", func() {
			events, err := s.Fetch(ctx, eventstore.Query{})

			Convey("Then all events come back newest first", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 3)
				So(events[0].UserID, ShouldEqual, "u2")
				So(events[2].EventType, ShouldEqual, "old")
			})
		})

		Convey("When the window excludes older events", func() {
			events, err := s.Fetch(ctx, eventstore.Query{WindowMinutes: 150})

			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
		})

		Convey("When filtering by user", func() {
			events, err := s.Fetch(ctx, eventstore.Query{UserID: "u1"})

			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 2)
		})

		Convey("When combining filters", func() {
			events, err := s.Fetch(ctx, eventstore.Query{UserID: "u1", Tag: "tool:search"})

			So(err, ShouldBeNil)
			So(events, ShouldHaveLength, 1)
			So(events[0].SessionID, ShouldEqual, "s1")
		})

		Convey("When no event matches", func() {
			events, err := s.Fetch(ctx, eventstore.Query{EventType: "nope"})

			So(err, ShouldBeNil)
			So(events, ShouldBeEmpty)
		})

		Convey("When limiting the result", func() {
			events, err := s.Fetch(ctx, eventstore.Query{Limit: 1})

			Convey("Then the newest event wins", func() {
				So(err, ShouldBeNil)
				So(events, ShouldHaveLength, 1)
				So(events[0].UserID, ShouldEqual, "u2")
			})
		})

		Convey("Then Count reflects everything stored regardless of window", func() {
			So(s.Count(ctx), ShouldEqual, 3)
		})
	})
}

func TestQueryDefaults(t *testing.T) {
	Convey("Given query values outside the accepted ranges", t, func() {
		Convey("Then the limit clamps to its bounds", func() {
			So(eventstore.Query{}.EffectiveLimit(), ShouldEqual, eventstore.DefaultFetchLimit)
			So(eventstore.Query{Limit: -5}.EffectiveLimit(), ShouldEqual, eventstore.DefaultFetchLimit)
			So(eventstore.Query{Limit: 99999}.EffectiveLimit(), ShouldEqual, eventstore.MaxFetchLimit)
			So(eventstore.Query{Limit: 7}.EffectiveLimit(), ShouldEqual, 7)
		})

		Convey("Then the window falls back to the default", func() {
			So(eventstore.Query{}.Window(), ShouldEqual, time.Duration(eventstore.DefaultWindowMinutes)*time.Minute)
			So(eventstore.Query{WindowMinutes: 30}.Window(), ShouldEqual, 30*time.Minute)
		})
	})
}
