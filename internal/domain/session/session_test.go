package session_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/loesoe/cortex/internal/domain/session"
	"github.com/loesoe/cortex/pkg/clock"
)

func TestTracker(t *testing.T) {
	Convey("Given a tracker with a fake clock", t, func() {
		now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		fake := clock.NewFake(now)
		tr := session.NewTracker(session.WithClock(fake))

		Convey("When marking an action with modules and dev minutes", func() {
			tr.MarkAction("u1", []string{"chat", "derive"}, 45)

			snap := tr.Snapshot()
			a := snap["u1"]

			Convey("Then the state is recorded", func() {
				So(a.LastAction, ShouldNotBeNil)
				So(*a.LastAction, ShouldResemble, now)
				So(a.LastModules, ShouldResemble, []string{"chat", "derive"})
				So(a.DevMinutes, ShouldEqual, 45)
			})
		})

		Convey("When dev minutes accumulate across actions", func() {
			tr.MarkAction("u1", nil, 30)
			fake.Advance(time.Hour)
			tr.MarkAction("u1", nil, 40)

			a := tr.Snapshot()["u1"]

			So(a.DevMinutes, ShouldEqual, 70)
			So(*a.LastAction, ShouldResemble, now.Add(time.Hour))
		})

		Convey("When logging in and out", func() {
			tr.MarkLogin("u1")
			fake.Advance(2 * time.Hour)
			tr.MarkLogout("u1")

			a := tr.Snapshot()["u1"]

			Convey("Then both count as actions", func() {
				So(*a.LastLogin, ShouldResemble, now)
				So(*a.LastLogout, ShouldResemble, now.Add(2*time.Hour))
				So(*a.LastAction, ShouldResemble, now.Add(2*time.Hour))
			})
		})

		Convey("When the user ID is empty", func() {
			tr.MarkAction("", []string{"chat"}, 10)

			So(tr.Snapshot(), ShouldBeEmpty)
		})

		Convey("When mutating a snapshot copy", func() {
			tr.MarkAction("u1", []string{"chat"}, 0)
			snap := tr.Snapshot()
			snap["u1"].LastModules[0] = "tampered"

			Convey("Then the tracker state is unaffected", func() {
				So(tr.Snapshot()["u1"].LastModules, ShouldResemble, []string{"chat"})
			})
		})
	})
}
