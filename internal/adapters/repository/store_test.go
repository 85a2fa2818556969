package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	repository "github.com/podiumhq/podium/internal/adapters/repository"
	"github.com/podiumhq/podium/internal/domain/metric"
	. "github.com/smartystreets/goconvey/convey"
)

func testItem(sessionID string, idx int, score float64) metric.SessionItem {
	return metric.SessionItem{
		SessionID:  sessionID,
		Username:   "dana",
		ScenarioID: "job-interview",
		Idx:        idx,
		VideoURL:   "file:///videos/q.mp4",
		Analyzers: map[string]metric.AnalyzerResult{
			"tone": {Score: score, Confidence: 1.0, Version: "1.0.0"},
		},
		Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

// itemStoreContract runs the shared ItemStore behavior against any backend.
// A factory is used because convey re-executes the tree once per leaf.
func itemStoreContract(t *testing.T, newStore func() repository.ItemStore) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty item store", t, func() {
		store := newStore()

		Convey("When two items for one session are upserted", func() {
			So(store.Upsert(ctx, testItem("s1", 1, 70)), ShouldBeNil)
			So(store.Upsert(ctx, testItem("s1", 0, 90)), ShouldBeNil)

			Convey("Then the snapshot is sorted by idx", func() {
				items, err := store.ListBySession(ctx, "s1")
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[0].Idx, ShouldEqual, 0)
				So(items[1].Idx, ShouldEqual, 1)
			})

			Convey("And re-submitting an idx overwrites in place", func() {
				So(store.Upsert(ctx, testItem("s1", 1, 55)), ShouldBeNil)

				items, err := store.ListBySession(ctx, "s1")
				So(err, ShouldBeNil)
				So(items, ShouldHaveLength, 2)
				So(items[1].Analyzers["tone"].Score, ShouldEqual, 55)
			})

			Convey("And other sessions stay untouched", func() {
				items, err := store.ListBySession(ctx, "s2")
				So(err, ShouldBeNil)
				So(items, ShouldBeEmpty)
			})

			Convey("And deleting the session removes everything", func() {
				n, err := store.DeleteSession(ctx, "s1")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When items of different ages are stored", func() {
			old := testItem("stale", 0, 50)
			old.Timestamp = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			So(store.Upsert(ctx, old), ShouldBeNil)
			So(store.Upsert(ctx, testItem("fresh", 0, 90)), ShouldBeNil)

			Convey("Then purging removes only items before the cutoff", func() {
				n, err := store.PurgeOlderThan(ctx, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)

				stale, err := store.ListBySession(ctx, "stale")
				So(err, ShouldBeNil)
				So(stale, ShouldBeEmpty)

				fresh, err := store.ListBySession(ctx, "fresh")
				So(err, ShouldBeNil)
				So(fresh, ShouldHaveLength, 1)
			})
		})
	})
}

func completedDoc(sessionID, username string) metric.CompletedSession {
	score := 80.0
	return metric.CompletedSession{
		Username:   username,
		ScenarioID: "job-interview",
		SessionID:  sessionID,
		Timestamp:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		VideoURL:   "file:///videos/q.mp4",
		Overall:    metric.OverallScore{Score: 80, Confidence: 0.93},
		Categories: map[string]metric.CategoryScore{"interaction": {Score: &score}},
		Analyzers:  map[string]metric.AnalyzerFinal{"tone": {Score: 80, Confidence: 1}},
		Meta: metric.Meta{
			SchemaVersion:   metric.SchemaVersion,
			PipelineVersion: "test",
			NumItems:        1,
		},
	}
}

// sessionStoreContract runs the shared SessionStore behavior.
func sessionStoreContract(t *testing.T, newStore func() repository.SessionStore) {
	t.Helper()
	ctx := context.Background()

	Convey("Given an empty session store", t, func() {
		store := newStore()

		Convey("When a document is inserted", func() {
			id, err := store.Insert(ctx, completedDoc("s1", "dana"))
			So(err, ShouldBeNil)
			So(id, ShouldNotBeEmpty)

			Convey("Then it is retrievable by id", func() {
				doc, err := store.Get(ctx, id)
				So(err, ShouldBeNil)
				So(doc.SessionID, ShouldEqual, "s1")
				So(doc.ID, ShouldEqual, id)
			})

			Convey("And an unknown id yields ErrNotFound", func() {
				_, err := store.Get(ctx, "missing")
				So(err, ShouldEqual, repository.ErrNotFound)
			})

			Convey("And a second finalize for the same session creates a second document", func() {
				id2, err := store.Insert(ctx, completedDoc("s1", "dana"))
				So(err, ShouldBeNil)
				So(id2, ShouldNotEqual, id)
				So(store.Count(ctx), ShouldEqual, 2)

				Convey("With GetBySessionID returning the newest", func() {
					doc, err := store.GetBySessionID(ctx, "s1")
					So(err, ShouldBeNil)
					So(doc.ID, ShouldEqual, id2)
				})
			})

			Convey("And ListByUser returns newest first", func() {
				_, err := store.Insert(ctx, completedDoc("s2", "dana"))
				So(err, ShouldBeNil)
				_, err = store.Insert(ctx, completedDoc("s3", "omar"))
				So(err, ShouldBeNil)

				docs, err := store.ListByUser(ctx, "dana", 10)
				So(err, ShouldBeNil)
				So(docs, ShouldHaveLength, 2)
				So(docs[0].SessionID, ShouldEqual, "s2")
			})

			Convey("And a non-positive limit is rejected", func() {
				_, err := store.ListByUser(ctx, "dana", 0)
				So(err, ShouldEqual, repository.ErrInvalidLimit)
			})
		})
	})
}

func TestMemoryItemStore(t *testing.T) {
	itemStoreContract(t, func() repository.ItemStore {
		return repository.NewMemoryItemStore()
	})
}

func TestMemorySessionStore(t *testing.T) {
	sessionStoreContract(t, func() repository.SessionStore {
		return repository.NewMemorySessionStore()
	})
}

func openSQLite(t *testing.T) *repository.SQLite {
	t.Helper()
	db, err := repository.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "podium.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteItemStore(t *testing.T) {
	itemStoreContract(t, func() repository.ItemStore {
		return openSQLite(t).Items()
	})
}

func TestSQLiteSessionStore(t *testing.T) {
	sessionStoreContract(t, func() repository.SessionStore {
		return openSQLite(t).Sessions()
	})
}
