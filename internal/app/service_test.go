package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/podiumhq/podium/internal/adapters/mq/queue"
	service "github.com/podiumhq/podium/internal/app"
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

func queueJob(sessionID, username string, idx int, videoPath, question string) queue.Job {
	return queue.Job{
		SessionID: sessionID,
		Username:  username,
		Idx:       idx,
		VideoPath: videoPath,
		Question:  question,
		Timestamp: time.Now().UTC(),
	}
}

func toneWeights() metric.Weights {
	return metric.Weights{
		Overall:    map[string]float64{"interaction": 1.0},
		Categories: map[string]map[string]float64{"interaction": {"tone": 1.0}},
	}
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with defaults", t, func() {
		svc := service.New(service.WithWeights(toneWeights()))

		Convey("When started and stopped", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil) // idempotent

			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["store_backend"], ShouldEqual, "memory")

			svc.Stop()
			svc.Stop() // idempotent
			So(svc.GetStats()["started"], ShouldBeFalse)
		})
	})

	Convey("Given a service with an unknown analyzer enabled", t, func() {
		svc := service.New(service.WithEnabledMetrics([]string{"tone", "charisma"}))

		Convey("When started", func() {
			err := svc.Start(ctx)

			Convey("Then startup fails fast", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "charisma")
			})
		})
	})
}

func TestServiceIngestAndFinalize(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWeights(toneWeights()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		item := metric.SessionItem{
			SessionID: "s1",
			Username:  "alice",
			Idx:       0,
			VideoURL:  "clips/q0.mp4",
			Analyzers: map[string]metric.AnalyzerResult{
				"tone": {Score: 80, Confidence: 1.0, Version: "1.0.0"},
			},
		}

		Convey("When an item is added and the session finalized", func() {
			So(svc.AddItem(ctx, item), ShouldBeNil)

			doc, err := svc.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s1", Username: "alice"})
			So(err, ShouldBeNil)

			Convey("Then the document is complete and readable", func() {
				So(doc.Overall.Score, ShouldEqual, 80.0)
				So(doc.Overall.Confidence, ShouldEqual, 0.93)

				got, err := svc.LatestBySessionID(ctx, "s1")
				So(err, ShouldBeNil)
				So(got.ID, ShouldEqual, doc.ID)

				history, err := svc.History(ctx, "alice", 10)
				So(err, ShouldBeNil)
				So(history, ShouldHaveLength, 1)
			})
		})

		Convey("When finalizing an unknown session", func() {
			_, err := svc.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "ghost"})

			Convey("Then the empty-session error surfaces", func() {
				So(errors.Is(err, meeting.ErrEmptySession), ShouldBeTrue)
			})
		})
	})
}

// sidecarPayload mirrors the extraction artifact layout read by the default
// analyzers.
type sidecarPayload struct {
	Gaze []struct {
		Left         eyeObs `json:"left"`
		Right        eyeObs `json:"right"`
		FaceDetected bool   `json:"face_detected"`
	} `json:"gaze"`
	Pose []struct {
		Yaw          float64 `json:"yaw"`
		Pitch        float64 `json:"pitch"`
		Roll         float64 `json:"roll"`
		FaceDetected bool    `json:"face_detected"`
	} `json:"pose"`
	Emotions []struct {
		Emotion    string  `json:"emotion"`
		Confidence float64 `json:"confidence"`
	} `json:"emotions"`
	Prosody struct {
		DurationSec float64 `json:"duration_sec"`
		F0Range     float64 `json:"f0_range"`
		RMSRange    float64 `json:"rms_range"`
		VoicedRatio float64 `json:"voiced_ratio"`
	} `json:"prosody"`
}

type eyeObs struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Width   float64 `json:"width"`
}

func writeSidecars(t *testing.T, videoPath string) {
	t.Helper()

	var payload sidecarPayload
	for i := 0; i < 10; i++ {
		payload.Gaze = append(payload.Gaze, struct {
			Left         eyeObs `json:"left"`
			Right        eyeObs `json:"right"`
			FaceDetected bool   `json:"face_detected"`
		}{
			Left:         eyeObs{OffsetX: 0.02, OffsetY: 0.01, Width: 1.0},
			Right:        eyeObs{OffsetX: 0.02, OffsetY: 0.01, Width: 1.0},
			FaceDetected: true,
		})
		payload.Pose = append(payload.Pose, struct {
			Yaw          float64 `json:"yaw"`
			Pitch        float64 `json:"pitch"`
			Roll         float64 `json:"roll"`
			FaceDetected bool    `json:"face_detected"`
		}{FaceDetected: true})
		payload.Emotions = append(payload.Emotions, struct {
			Emotion    string  `json:"emotion"`
			Confidence float64 `json:"confidence"`
		}{Emotion: "happy", Confidence: 0.9})
	}
	payload.Prosody.DurationSec = 12
	payload.Prosody.F0Range = 160
	payload.Prosody.RMSRange = 0.03
	payload.Prosody.VoicedRatio = 0.9

	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal sidecar: %v", err)
	}
	if err := os.WriteFile(videoPath+".frames.json", raw, 0o600); err != nil {
		t.Fatalf("write frames sidecar: %v", err)
	}
	transcript := "Thank you for the question. I believe my experience building reliable " +
		"distributed systems and mentoring junior engineers makes me a strong fit for this role."
	if err := os.WriteFile(videoPath+".transcript.txt", []byte(transcript), 0o600); err != nil {
		t.Fatalf("write transcript sidecar: %v", err)
	}
}

func TestServiceAsyncPipeline(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service and extraction sidecars on disk", t, func() {
		dir := t.TempDir()
		videoPath := filepath.Join(dir, "q0.mp4")
		writeSidecars(t, videoPath)

		svc := service.New(service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When an analysis job flows through the queue", func() {
			ok := svc.Enqueue(ctx, queueJob("s1", "alice", 0, videoPath, "Why are you a good fit?"))
			So(ok, ShouldBeTrue)

			deadline := time.After(5 * time.Second)
			for {
				stats := svc.GetStats()
				if n, _ := stats["items_stored"].(int); n == 1 {
					break
				}
				select {
				case <-deadline:
					t.Fatal("timed out waiting for the job to be processed")
				case <-time.After(20 * time.Millisecond):
				}
			}

			doc, err := svc.FinalizeSession(ctx, meeting.FinalizeRequest{SessionID: "s1", Username: "alice"})
			So(err, ShouldBeNil)

			Convey("Then every default analyzer contributed a final", func() {
				So(doc.Analyzers, ShouldHaveLength, 7)
				So(doc.Analyzers["eye_contact"].Score, ShouldEqual, 100.0)
				So(doc.Analyzers["head_pose"].Score, ShouldEqual, 100.0)
				So(doc.Analyzers["facial_expression"].Score, ShouldBeGreaterThan, 90.0)
				So(doc.Analyzers["tone"].Score, ShouldBeGreaterThan, 50.0)
				So(doc.Analyzers["speech_style"].Score, ShouldBeGreaterThan, 90.0)
			})

			Convey("And the rollup produced a full document", func() {
				So(doc.Overall.Score, ShouldBeGreaterThan, 0.0)
				So(doc.Categories, ShouldHaveLength, 3)
				So(doc.Meta.NumItems, ShouldEqual, 1)
			})
		})
	})
}
