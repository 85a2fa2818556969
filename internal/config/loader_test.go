package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/podiumhq/podium/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"PODIUM_CONFIG",
		"PODIUM_ADDR",
		"PODIUM_LOG_LEVEL",
		"PODIUM_STORE_BACKEND",
		"PODIUM_SQLITE_PATH",
		"PODIUM_QUEUE_SIZE",
		"PODIUM_WORKER_COUNT",
		"PODIUM_PIPELINE_VERSION",
		"PODIUM_DELETE_ITEMS_ON_FINALIZE",
		"PODIUM_RETENTION_SCHEDULE",
		"PODIUM_RETENTION_MAX_AGE_HOURS",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreMemory)
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1024)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("PODIUM_ADDR", ":9090")
			_ = os.Setenv("PODIUM_STORE_BACKEND", "sqlite")
			_ = os.Setenv("PODIUM_SQLITE_PATH", "/tmp/podium-test.db")
			_ = os.Setenv("PODIUM_QUEUE_SIZE", "64")
			_ = os.Setenv("PODIUM_WORKER_COUNT", "2")
			_ = os.Setenv("PODIUM_DELETE_ITEMS_ON_FINALIZE", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.StoreBackend, convey.ShouldEqual, config.StoreSQLite)
				convey.So(cfg.SQLitePath, convey.ShouldEqual, "/tmp/podium-test.db")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 2)
				convey.So(cfg.DeleteItemsOnFinalize, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "podium.yaml")
			yaml := `
addr: ":7070"
log_level: debug
enabled_metrics:
  - tone
  - grammar
overall_weights:
  interaction: 1.0
category_weights:
  interaction:
    tone: 1.0
`
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PODIUM_CONFIG", path)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values override defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.EnabledMetrics, convey.ShouldResemble, []string{"tone", "grammar"})
				convey.So(cfg.OverallWeights["interaction"], convey.ShouldEqual, 1.0)
				convey.So(cfg.CategoryWeights["interaction"]["tone"], convey.ShouldEqual, 1.0)
			})
		})

		convey.Convey("When the store backend is unknown", func() {
			_ = os.Setenv("PODIUM_STORE_BACKEND", "oracle")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a weight is negative", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "podium.yaml")
			yaml := "overall_weights:\n  interaction: -1.0\n"
			convey.So(os.WriteFile(path, []byte(yaml), 0o600), convey.ShouldBeNil)
			_ = os.Setenv("PODIUM_CONFIG", path)
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid-config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
