package config_test

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/tovenja/quench/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Model, convey.ShouldEqual, "quench-mini")
			convey.So(cfg.Artifact, convey.ShouldEqual, "quench.qir")
			convey.So(cfg.Device, convey.ShouldEqual, "cpu")
			convey.So(cfg.AnswerThreshold, convey.ShouldEqual, 0.5)
			convey.So(cfg.RunsDB, convey.ShouldEqual, "quench.db")
			convey.So(cfg.MaxTableBytes, convey.ShouldEqual, 1<<20)
		})
	})
}
