package artifact_test

import (
	"errors"
	"testing"

	"github.com/podiumhq/podium/internal/analyzer/artifact"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	Convey("Given an artifact cache", t, func() {
		cache := artifact.NewCache()

		Convey("When a transcript is stored", func() {
			cache.PutTranscript("a.mp4", "hello world")

			Convey("Then it is readable until cleared", func() {
				So(cache.Transcript("a.mp4"), ShouldEqual, "hello world")
				So(cache.Len(), ShouldEqual, 1)

				cache.Clear("a.mp4")
				So(cache.Transcript("a.mp4"), ShouldBeEmpty)
				So(cache.Len(), ShouldEqual, 0)
			})

			Convey("And other videos are unaffected", func() {
				So(cache.Transcript("b.mp4"), ShouldBeEmpty)
			})
		})
	})
}

func TestWithVideo(t *testing.T) {
	Convey("Given a scoped video run", t, func() {
		cache := artifact.NewCache()

		Convey("When the function succeeds", func() {
			err := cache.WithVideo("a.mp4", func() error {
				cache.PutTranscript("a.mp4", "text")
				So(cache.Transcript("a.mp4"), ShouldEqual, "text")
				return nil
			})

			Convey("Then entries are cleared on exit", func() {
				So(err, ShouldBeNil)
				So(cache.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the function fails", func() {
			wantErr := errors.New("boom")
			err := cache.WithVideo("a.mp4", func() error {
				cache.PutTranscript("a.mp4", "text")
				return wantErr
			})

			Convey("Then the error propagates and entries are cleared", func() {
				So(err, ShouldEqual, wantErr)
				So(cache.Len(), ShouldEqual, 0)
			})
		})

		Convey("When the function panics", func() {
			func() {
				defer func() { _ = recover() }()
				_ = cache.WithVideo("a.mp4", func() error {
					cache.PutTranscript("a.mp4", "text")
					panic("boom")
				})
			}()

			Convey("Then entries are still cleared", func() {
				So(cache.Len(), ShouldEqual, 0)
			})
		})
	})
}
