package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/dodgestorm/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DODGESTORM_CONFIG", "")
	t.Setenv("DODGESTORM_JWT_SECRET", "test-secret")

	Convey("Given only the secret in the environment", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then defaults are applied", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8080")
			So(cfg.GameMode, ShouldEqual, "classic")
			So(cfg.RateCap, ShouldEqual, 50.0)
			So(cfg.RateBuffer, ShouldEqual, 100)
			So(cfg.BroadcastLimit, ShouldEqual, 100)
			So(cfg.TokenTTLMinutes, ShouldEqual, 60)
			So(cfg.JWTSecret, ShouldEqual, "test-secret")
		})
	})
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DODGESTORM_CONFIG", "")
	t.Setenv("DODGESTORM_JWT_SECRET", "test-secret")
	t.Setenv("DODGESTORM_ADDR", ":9999")
	t.Setenv("DODGESTORM_RATE_CAP", "10")
	t.Setenv("DODGESTORM_GAME_MODE", "blitz")

	Convey("Given env overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the overrides win over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9999")
			So(cfg.RateCap, ShouldEqual, 10.0)
			So(cfg.GameMode, ShouldEqual, "blitz")
		})
	})
}

func TestLoadFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "cfg-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("addr: \":7070\"\nrate_buffer: 50\n"); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DODGESTORM_CONFIG", f.Name())
	t.Setenv("DODGESTORM_JWT_SECRET", "test-secret")

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values apply where env is silent", func() {
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.RateBuffer, ShouldEqual, 50)
		})
	})
}

func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("DODGESTORM_CONFIG", "")
	t.Setenv("DODGESTORM_JWT_SECRET", "")

	Convey("Given no JWT secret anywhere", t, func() {
		_, err := config.Load(context.Background())

		Convey("Then loading fails with an invalid-config error", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
