package config_test

import (
	"context"
	"runtime"
	"testing"

	"github.com/podiumhq/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.EnabledMetrics, convey.ShouldHaveLength, 7)
			convey.So(cfg.PipelineVersion, convey.ShouldEqual, "2.0.0")
			convey.So(cfg.DeleteItemsOnFinalize, convey.ShouldBeFalse)
			convey.So(cfg.RetentionSchedule, convey.ShouldEqual, "@hourly")
			convey.So(cfg.RetentionMaxAgeHours, convey.ShouldEqual, 168)
		})
	})
}
