package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given metrics recording", t, func() {
		Convey("When recording analyzer metrics", func() {
			Convey("Then it should record runs and errors", func() {
				So(func() {
					RecordAnalyzerRun("tone")
					RecordAnalyzerError("tone")
					RecordAnalyzerLatency("tone", 42.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording pipeline metrics", func() {
			Convey("Then it should record ingestion and finalization", func() {
				So(func() {
					RecordItemIngested()
					RecordIngestError()
					RecordFinalization()
					RecordFinalizeError()
					RecordFinalizeLatency(12.5)
				}, ShouldNotPanic)
			})

			Convey("And it should update store gauges", func() {
				So(func() {
					UpdateItemsStored(3)
					UpdateSessionsFinished(1)
					UpdateCacheEntries(2)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording queue and worker metrics", func() {
			Convey("Then it should not panic", func() {
				So(func() {
					UpdateQueueSize(10)
					UpdateQueueCapacity(100)
					RecordJobEnqueued()
					RecordJobDropped()
					UpdateWorkerCount(4)
					RecordJobLatency(250.0)
					RecordWorkerError()
				}, ShouldNotPanic)
			})
		})

		Convey("When recording HTTP metrics", func() {
			Convey("Then it should record requests and durations", func() {
				So(func() {
					RecordHTTPRequest("/sessions", "POST", "200")
					RecordHTTPRequestDuration("/sessions", "POST", "200", 5.0)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When fetching it", func() {
			registry := GetRegistry()

			Convey("Then it should be the custom registry", func() {
				So(registry, ShouldNotBeNil)
				So(registry, ShouldEqual, customRegistry)
			})
		})
	})
}
