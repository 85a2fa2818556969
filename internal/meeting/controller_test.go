package meeting_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/podiumhq/podium/internal/adapters/repository"
	"github.com/podiumhq/podium/internal/domain/metric"
	"github.com/podiumhq/podium/internal/meeting"
	"github.com/podiumhq/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func toneItem(sessionID string, idx int, score, conf float64) metric.SessionItem {
	return metric.SessionItem{
		SessionID: sessionID,
		Username:  "alice",
		Idx:       idx,
		VideoURL:  "videos/clip.mp4",
		Analyzers: map[string]metric.AnalyzerResult{
			"tone": {Score: score, Confidence: conf, Version: "1.0.0"},
		},
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func toneOnlyWeights() metric.Weights {
	return metric.Weights{
		Overall:    map[string]float64{"interaction": 1.0},
		Categories: map[string]map[string]float64{"interaction": {"tone": 1.0}},
	}
}

func TestAddItem(t *testing.T) {
	ctx := context.Background()

	Convey("Given a controller over empty stores", t, func() {
		items := repository.NewMemoryItemStore()
		sessions := repository.NewMemorySessionStore()
		ctrl := meeting.NewController(items, sessions)

		Convey("When a valid item is added", func() {
			err := ctrl.AddItem(ctx, toneItem("s1", 0, 90, 1.0))

			Convey("Then it is stored", func() {
				So(err, ShouldBeNil)
				stored, _ := items.ListBySession(ctx, "s1")
				So(stored, ShouldHaveLength, 1)
				So(stored[0].Analyzers["tone"].Score, ShouldEqual, 90.0)
			})
		})

		Convey("When the same index is submitted twice", func() {
			So(ctrl.AddItem(ctx, toneItem("s1", 0, 90, 1.0)), ShouldBeNil)
			So(ctrl.AddItem(ctx, toneItem("s1", 0, 40, 0.8)), ShouldBeNil)

			Convey("Then the last write wins without duplication", func() {
				stored, _ := items.ListBySession(ctx, "s1")
				So(stored, ShouldHaveLength, 1)
				So(stored[0].Analyzers["tone"].Score, ShouldEqual, 40.0)
			})
		})

		Convey("When the item is invalid", func() {
			bad := toneItem("s1", 0, 90, 1.0)
			bad.VideoURL = ""
			err := ctrl.AddItem(ctx, bad)

			Convey("Then it is rejected and nothing is stored", func() {
				So(errors.Is(err, metric.ErrValidation), ShouldBeTrue)
				So(items.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When an analyzer score is out of range", func() {
			bad := toneItem("s1", 0, 140, 1.0)
			err := ctrl.AddItem(ctx, bad)

			Convey("Then validation fails", func() {
				So(errors.Is(err, metric.ErrValidation), ShouldBeTrue)
				So(items.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the timestamp is omitted", func() {
			item := toneItem("s1", 0, 90, 1.0)
			item.Timestamp = time.Time{}
			So(ctrl.AddItem(ctx, item), ShouldBeNil)

			Convey("Then one is assigned on ingest", func() {
				stored, _ := items.ListBySession(ctx, "s1")
				So(stored[0].Timestamp.IsZero(), ShouldBeFalse)
			})
		})
	})
}

func TestFinalizeSession(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session with two tone items", t, func() {
		items := repository.NewMemoryItemStore()
		sessions := repository.NewMemorySessionStore()
		ctrl := meeting.NewController(items, sessions, meeting.WithWeights(toneOnlyWeights()))

		So(ctrl.AddItem(ctx, toneItem("s1", 0, 90, 1.0)), ShouldBeNil)
		So(ctrl.AddItem(ctx, toneItem("s1", 1, 70, 1.0)), ShouldBeNil)

		req := meeting.FinalizeRequest{
			SessionID:  "s1",
			Username:   "alice",
			ScenarioID: "interview-01",
			VideoURL:   "videos/clip.mp4",
		}

		Convey("When the session is finalized", func() {
			doc, err := ctrl.FinalizeSession(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then the rollup chain produces the expected document", func() {
				So(doc.Analyzers["tone"].Score, ShouldEqual, 80.0)
				So(doc.Analyzers["tone"].Confidence, ShouldEqual, 1.0)
				So(doc.Analyzers["tone"].Version, ShouldEqual, "1.0.0")
				So(*doc.Categories["interaction"].Score, ShouldEqual, 80.0)
				So(doc.Overall.Score, ShouldEqual, 80.0)
				So(doc.Overall.Confidence, ShouldEqual, 0.93)
			})

			Convey("And reproducibility metadata is stamped", func() {
				So(doc.Meta.SchemaVersion, ShouldEqual, 2)
				So(doc.Meta.NumItems, ShouldEqual, 2)
				So(doc.Meta.PipelineVersion, ShouldEqual, meeting.DefaultPipelineVersion)
				So(doc.Meta.Weights.Overall["interaction"], ShouldEqual, 1.0)
			})

			Convey("And the document is persisted and retrievable", func() {
				So(doc.ID, ShouldNotBeEmpty)
				got, err := ctrl.Session(ctx, doc.ID)
				So(err, ShouldBeNil)
				So(got.SessionID, ShouldEqual, "s1")
				So(got.Username, ShouldEqual, "alice")
			})

			Convey("And raw items survive by default", func() {
				So(items.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When a per-call pipeline version is supplied", func() {
			override := req
			override.PipelineVersion = "2.1.0-rc1"
			doc, err := ctrl.FinalizeSession(ctx, override)
			So(err, ShouldBeNil)

			Convey("Then it replaces the configured one for this document", func() {
				So(doc.Meta.PipelineVersion, ShouldEqual, "2.1.0-rc1")
			})
		})

		Convey("When the session is finalized twice", func() {
			first, err := ctrl.FinalizeSession(ctx, req)
			So(err, ShouldBeNil)
			second, err := ctrl.FinalizeSession(ctx, req)
			So(err, ShouldBeNil)

			Convey("Then two independent documents exist", func() {
				So(first.ID, ShouldNotEqual, second.ID)
				So(sessions.Count(ctx), ShouldEqual, 2)
			})
		})

		Convey("When finalize is called with the if-absent flag", func() {
			first, err := ctrl.FinalizeSession(ctx, req)
			So(err, ShouldBeNil)

			again := req
			again.IfAbsent = true
			second, err := ctrl.FinalizeSession(ctx, again)
			So(err, ShouldBeNil)

			Convey("Then the existing document is returned untouched", func() {
				So(second.ID, ShouldEqual, first.ID)
				So(sessions.Count(ctx), ShouldEqual, 1)
			})
		})
	})
}

func TestFinalizeEdgeCases(t *testing.T) {
	ctx := context.Background()

	Convey("Given a controller over empty stores", t, func() {
		items := repository.NewMemoryItemStore()
		sessions := repository.NewMemorySessionStore()
		ctrl := meeting.NewController(items, sessions, meeting.WithWeights(toneOnlyWeights()))

		Convey("When finalizing a session with no items", func() {
			_, err := ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "ghost"})

			Convey("Then the empty-session error surfaces and nothing is persisted", func() {
				So(errors.Is(err, meeting.ErrEmptySession), ShouldBeTrue)
				So(sessions.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When finalizing without a session id", func() {
			_, err := ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{})

			Convey("Then validation fails", func() {
				So(errors.Is(err, metric.ErrValidation), ShouldBeTrue)
			})
		})

		Convey("When item deletion after finalize is enabled", func() {
			ctrl := meeting.NewController(items, sessions,
				meeting.WithWeights(toneOnlyWeights()),
				meeting.WithDeleteItemsOnFinalize(true))
			So(ctrl.AddItem(ctx, toneItem("s1", 0, 90, 1.0)), ShouldBeNil)

			_, err := ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s1"})
			So(err, ShouldBeNil)

			Convey("Then the raw items are gone", func() {
				So(items.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a configured category has no contributing analyzer", func() {
			weights := metric.Weights{
				Overall: map[string]float64{"interaction": 0.5, "verbal": 0.5},
				Categories: map[string]map[string]float64{
					"interaction": {"tone": 1.0},
					"verbal":      {"grammar": 1.0},
				},
			}
			ctrl := meeting.NewController(items, sessions, meeting.WithWeights(weights))
			So(ctrl.AddItem(ctx, toneItem("s1", 0, 80, 1.0)), ShouldBeNil)

			doc, err := ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s1"})
			So(err, ShouldBeNil)

			Convey("Then the category is null and excluded from the overall", func() {
				So(doc.Categories["verbal"].Score, ShouldBeNil)
				So(*doc.Categories["interaction"].Score, ShouldEqual, 80.0)
				So(doc.Overall.Score, ShouldEqual, 80.0)
			})
		})
	})
}

func TestControllerReads(t *testing.T) {
	ctx := context.Background()

	Convey("Given finalized sessions for one user", t, func() {
		items := repository.NewMemoryItemStore()
		sessions := repository.NewMemorySessionStore()
		ctrl := meeting.NewController(items, sessions, meeting.WithWeights(toneOnlyWeights()))

		So(ctrl.AddItem(ctx, toneItem("s1", 0, 90, 1.0)), ShouldBeNil)
		So(ctrl.AddItem(ctx, toneItem("s2", 0, 60, 1.0)), ShouldBeNil)
		_, err := ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s1", Username: "alice"})
		So(err, ShouldBeNil)
		_, err = ctrl.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s2", Username: "alice"})
		So(err, ShouldBeNil)

		Convey("When history is requested", func() {
			docs, err := ctrl.History(ctx, "alice", 10)

			Convey("Then both documents come back newest first", func() {
				So(err, ShouldBeNil)
				So(docs, ShouldHaveLength, 2)
			})
		})

		Convey("When the latest document for a session is requested", func() {
			doc, err := ctrl.LatestBySessionID(ctx, "s2")

			Convey("Then it resolves by logical session id", func() {
				So(err, ShouldBeNil)
				So(doc.Overall.Score, ShouldEqual, 60.0)
			})
		})

		Convey("When an unknown id is requested", func() {
			_, err := ctrl.Session(ctx, "nope")

			Convey("Then not-found surfaces", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
