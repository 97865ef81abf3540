package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/dodgestorm/internal/adapters/repository"
	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/pkg/logger"
)

func init() {
	_ = logger.Init()
}

func rec(user string, score int64, mode string, ts time.Time) model.ScoreRecord {
	return model.ScoreRecord{
		UserID:          user,
		Username:        "player-" + user,
		Score:           score,
		DurationSeconds: 30,
		Timestamp:       ts,
		GameMode:        mode,
	}
}

func TestCandidateFetchLimit(t *testing.T) {
	Convey("Given the candidate over-fetch policy", t, func() {
		Convey("Then it scales the requested limit", func() {
			So(repository.CandidateFetchLimit(10), ShouldEqual, 250)
			So(repository.CandidateFetchLimit(1), ShouldEqual, 25)
		})

		Convey("And it is capped", func() {
			So(repository.CandidateFetchLimit(100), ShouldEqual, 2500)
			So(repository.CandidateFetchLimit(10000), ShouldEqual, 2500)
		})

		Convey("And nonsense input is normalized", func() {
			So(repository.CandidateFetchLimit(0), ShouldEqual, 25)
			So(repository.CandidateFetchLimit(-3), ShouldEqual, 25)
		})
	})
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	Convey("Given an in-memory store with a few records", t, func() {
		s := repository.NewMemoryStore()
		So(s.Append(ctx, rec("u1", 10, "classic", now)), ShouldBeNil)
		So(s.Append(ctx, rec("u2", 30, "classic", now)), ShouldBeNil)
		So(s.Append(ctx, rec("u3", 20, "classic", now)), ShouldBeNil)
		So(s.Append(ctx, rec("u4", 99, "blitz", now)), ShouldBeNil)

		Convey("When querying candidates for a mode", func() {
			got, err := s.TopCandidates(ctx, "classic", 10)

			Convey("Then records come back score-descending, mode-filtered", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].UserID, ShouldEqual, "u2")
				So(got[1].UserID, ShouldEqual, "u3")
				So(got[2].UserID, ShouldEqual, "u1")
			})
		})

		Convey("When the limit is smaller than the record count", func() {
			got, err := s.TopCandidates(ctx, "classic", 2)
			So(err, ShouldBeNil)
			So(got, ShouldHaveLength, 2)
			So(got[0].Score, ShouldEqual, 30)
		})

		Convey("When querying an unknown mode", func() {
			got, err := s.TopCandidates(ctx, "nope", 10)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("Then Count covers every mode", func() {
			So(s.Count(ctx), ShouldEqual, 4)
		})
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	Convey("Given a Redis store backed by miniredis", t, func() {
		mr, err := miniredis.Run()
		So(err, ShouldBeNil)
		defer mr.Close()

		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer client.Close()

		s, err := repository.NewRedisStore(&repository.RedisConfig{Client: client})
		So(err, ShouldBeNil)

		Convey("When appending and querying records", func() {
			So(s.Append(ctx, rec("u1", 10, "classic", now)), ShouldBeNil)
			So(s.Append(ctx, rec("u2", 30, "classic", now)), ShouldBeNil)
			So(s.Append(ctx, rec("u1", 20, "classic", now.Add(time.Second))), ShouldBeNil)
			So(s.Append(ctx, rec("u9", 70, "blitz", now)), ShouldBeNil)

			got, err := s.TopCandidates(ctx, "classic", 10)

			Convey("Then all classic records come back score-descending", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 3)
				So(got[0].UserID, ShouldEqual, "u2")
				So(got[0].Score, ShouldEqual, 30)
				So(got[1].Score, ShouldEqual, 20)
				So(got[2].Score, ShouldEqual, 10)
			})

			Convey("And the round-trip preserves record fields", func() {
				So(err, ShouldBeNil)
				So(got[0].Username, ShouldEqual, "player-u2")
				So(got[0].GameMode, ShouldEqual, "classic")
				So(got[0].Timestamp.Equal(now), ShouldBeTrue)
			})

			Convey("And Count tracks appends across modes", func() {
				So(s.Count(ctx), ShouldEqual, 4)
			})
		})

		Convey("When the sorted set contains a malformed member", func() {
			So(s.Append(ctx, rec("u1", 10, "classic", now)), ShouldBeNil)
			_, err := client.ZAdd(ctx, "scores:classic", redis.Z{Score: 999, Member: "{not json"}).Result()
			So(err, ShouldBeNil)

			got, err := s.TopCandidates(ctx, "classic", 10)

			Convey("Then the noise is skipped, not fatal", func() {
				So(err, ShouldBeNil)
				So(got, ShouldHaveLength, 1)
				So(got[0].UserID, ShouldEqual, "u1")
			})
		})

		Convey("When constructed without a client", func() {
			_, err := repository.NewRedisStore(nil)
			So(err, ShouldNotBeNil)
		})
	})
}
