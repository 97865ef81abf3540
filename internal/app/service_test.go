package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/dodgestorm/internal/app"
	"github.com/okian/dodgestorm/internal/domain/auth"
	"github.com/okian/dodgestorm/internal/domain/ranking"
	"github.com/okian/dodgestorm/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func newStartedService(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithJWTSecret("test-secret"),
		service.WithBroadcastLimit(10),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestServiceAccounts(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		Convey("When registering a new user", func() {
			token, id, err := svc.Register(ctx, "ada", "hunter22")

			Convey("Then it should return a usable token", func() {
				So(err, ShouldBeNil)
				So(token, ShouldNotBeEmpty)
				So(id.Username, ShouldEqual, "ada")
				So(id.UserID, ShouldNotBeEmpty)

				resolved, err := svc.Authenticate(ctx, token)
				So(err, ShouldBeNil)
				So(resolved, ShouldResemble, id)
			})

			Convey("And logging in with the right password should work", func() {
				So(err, ShouldBeNil)
				token2, id2, err := svc.Login(ctx, "ada", "hunter22")
				So(err, ShouldBeNil)
				So(token2, ShouldNotBeEmpty)
				So(id2.UserID, ShouldEqual, id.UserID)
			})

			Convey("And logging in with the wrong password should fail", func() {
				So(err, ShouldBeNil)
				_, _, err := svc.Login(ctx, "ada", "wrong")
				So(err, ShouldEqual, auth.ErrInvalidCredentials)
			})

			Convey("And registering the same username again should fail", func() {
				So(err, ShouldBeNil)
				_, _, err := svc.Register(ctx, "ada", "other")
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When logging in as an unknown user", func() {
			_, _, err := svc.Login(ctx, "nobody", "pw")

			Convey("Then it should report invalid credentials", func() {
				So(err, ShouldEqual, auth.ErrInvalidCredentials)
			})
		})

		Convey("When requesting guest sessions twice", func() {
			_, first, err1 := svc.Guest(ctx)
			_, second, err2 := svc.Guest(ctx)

			Convey("Then both should share one identity", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(first.Username, ShouldEqual, "Guest")
				So(second.UserID, ShouldEqual, first.UserID)
			})
		})

		Convey("When authenticating a garbage token", func() {
			_, err := svc.Authenticate(ctx, "not-a-token")

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestServiceSubmitAndTop(t *testing.T) {
	Convey("Given a started service with registered players", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		_, ada, err := svc.Register(ctx, "ada", "pw1")
		So(err, ShouldBeNil)
		_, bob, err := svc.Register(ctx, "bob", "pw2")
		So(err, ShouldBeNil)

		Convey("When both submit plausible scores", func() {
			So(svc.SubmitScore(ctx, ada, 3100, 150), ShouldBeNil)
			So(svc.SubmitScore(ctx, bob, 4000, 200), ShouldBeNil)
			So(svc.SubmitScore(ctx, ada, 900, 30), ShouldBeNil)

			Convey("Then Top should rank best score per user", func() {
				entries, err := svc.Top(ctx, 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].Username, ShouldEqual, "bob")
				So(entries[0].Score, ShouldEqual, 4000)
				So(entries[1].Username, ShouldEqual, "ada")
				So(entries[1].Score, ShouldEqual, 3100)
			})

			Convey("And a snapshot should be queued per accepted submission", func() {
				So(svc.Snapshots().Len(ctx), ShouldEqual, 3)
			})
		})

		Convey("When a submission is implausibly high", func() {
			err := svc.SubmitScore(ctx, ada, 1_000_000, 10)

			Convey("Then it should be rejected and leave no trace", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, ranking.ErrRejected), ShouldBeTrue)

				entries, topErr := svc.Top(ctx, 10)
				So(topErr, ShouldBeNil)
				So(entries, ShouldBeEmpty)
				So(svc.Snapshots().Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When a submission has a nonpositive duration", func() {
			err := svc.SubmitScore(ctx, bob, 100, 0)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ranking.ErrRejected), ShouldBeTrue)
			})
		})
	})
}

func TestServiceStats(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStartedService(t)
		ctx := context.Background()

		_, id, err := svc.Register(ctx, "ada", "pw")
		So(err, ShouldBeNil)
		So(svc.SubmitScore(ctx, id, 500, 60), ShouldBeNil)

		Convey("When reading stats", func() {
			stats := svc.GetStats()

			Convey("Then it should report records and queue depth", func() {
				So(stats["started"], ShouldBeTrue)
				So(stats["records"], ShouldEqual, 1)
				So(stats["queueLength"], ShouldEqual, 1)
				So(stats["liveConnections"], ShouldEqual, 0)
			})
		})
	})
}

func TestServiceStartValidation(t *testing.T) {
	Convey("Given a service without a signing secret", t, func() {
		svc := service.New()

		Convey("When starting", func() {
			err := svc.Start(context.Background())

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given an already started service", t, func() {
		svc := newStartedService(t, service.WithTokenTTL(5*time.Minute))

		Convey("When starting again", func() {
			err := svc.Start(context.Background())

			Convey("Then it should be a no-op", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}
