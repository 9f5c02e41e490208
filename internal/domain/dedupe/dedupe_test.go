package dedupe_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/loesoe/cortex/internal/domain/dedupe"
)

func TestSeenAndRecord(t *testing.T) {
	Convey("Given a fresh deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()

		Convey("When an ID arrives for the first time", func() {
			seen := d.SeenAndRecord(ctx, "msg-1")

			So(seen, ShouldBeFalse)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("When the same ID arrives twice", func() {
			d.SeenAndRecord(ctx, "msg-1")
			seen := d.SeenAndRecord(ctx, "msg-1")

			So(seen, ShouldBeTrue)
			So(d.Size(), ShouldEqual, 1)
		})

		Convey("When distinct IDs arrive", func() {
			d.SeenAndRecord(ctx, "msg-1")
			d.SeenAndRecord(ctx, "msg-2")

			So(d.Size(), ShouldEqual, 2)
		})
	})
}

func TestUnrecord(t *testing.T) {
	Convey("Given a deduper with a recorded ID", t, func() {
		d := dedupe.NewInMemoryDeduper()
		ctx := context.Background()
		d.SeenAndRecord(ctx, "msg-1")

		Convey("When the ID is unrecorded", func() {
			d.Unrecord(ctx, "msg-1")

			Convey("Then it can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, "msg-1"), ShouldBeFalse)
			})
		})

		Convey("When an unknown ID is unrecorded", func() {
			d.Unrecord(ctx, "missing")

			So(d.Size(), ShouldEqual, 1)
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given a deduper bounded at three IDs", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			d.SeenAndRecord(ctx, fmt.Sprintf("msg-%d", i))
		}

		Convey("When a fourth ID arrives", func() {
			d.SeenAndRecord(ctx, "msg-3")

			Convey("Then the oldest entry is forgotten", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(ctx, "msg-0"), ShouldBeFalse)
				So(d.SeenAndRecord(ctx, "msg-3"), ShouldBeTrue)
			})
		})
	})
}
