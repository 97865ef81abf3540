package ranking_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/dodgestorm/internal/domain/model"
	"github.com/okian/dodgestorm/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func record(user string, score int64, ts time.Time) model.ScoreRecord {
	return model.ScoreRecord{
		UserID:          user,
		Username:        "player-" + user,
		Score:           score,
		DurationSeconds: 60,
		Timestamp:       ts,
		GameMode:        "classic",
	}
}

func TestPolicy_Validate(t *testing.T) {
	Convey("Given a policy with cap rate 50/s and buffer 100", t, func() {
		p := ranking.New(ranking.WithCapRate(50), ranking.WithBuffer(100))

		Convey("When the duration is zero or negative", func() {
			Convey("Then the submission is rejected", func() {
				So(errors.Is(p.Validate(10, 0), ranking.ErrRejected), ShouldBeTrue)
				So(errors.Is(p.Validate(10, -3.5), ranking.ErrRejected), ShouldBeTrue)
			})
		})

		Convey("When the score is negative", func() {
			So(errors.Is(p.Validate(-1, 10), ranking.ErrRejected), ShouldBeTrue)
		})

		Convey("When the score is within the plausible maximum", func() {
			// 60s * 50/s + 100 = 3100
			So(p.Validate(500, 60), ShouldBeNil)
			So(p.Validate(3100, 60), ShouldBeNil)
		})

		Convey("When the score exceeds the plausible maximum", func() {
			// 1s * 50/s + 100 = 150
			err := p.Validate(5000, 1)
			So(errors.Is(err, ranking.ErrRejected), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "150")
		})
	})
}

func TestPolicy_Record(t *testing.T) {
	Convey("Given a policy with a fixed clock", t, func() {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
		p := ranking.New(ranking.WithGameMode("classic"), ranking.WithClock(func() time.Time { return now }))

		Convey("When building a record for an accepted submission", func() {
			rec := p.Record(model.UserIdentity{UserID: "u1", Username: "alice"}, 500, 60)

			Convey("Then the timestamp is server-stamped in UTC", func() {
				So(rec.Timestamp.Equal(now), ShouldBeTrue)
				So(rec.Timestamp.Location(), ShouldEqual, time.UTC)
			})

			Convey("And identity and mode are carried through", func() {
				So(rec.UserID, ShouldEqual, "u1")
				So(rec.Username, ShouldEqual, "alice")
				So(rec.GameMode, ShouldEqual, "classic")
				So(rec.Score, ShouldEqual, 500)
				So(rec.DurationSeconds, ShouldEqual, 60.0)
			})
		})
	})
}

func TestRankTop(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)
	t2 := t0.Add(2 * time.Minute)

	Convey("Given records from several users", t, func() {
		records := []model.ScoreRecord{
			record("u1", 10, t1),
			record("u1", 30, t2),
			record("u2", 20, t0),
			record("u3", 30, t0),
		}

		Convey("When ranking the top 10", func() {
			top := ranking.RankTop(records, 10, "classic")

			Convey("Then each user appears once with their best score", func() {
				So(top, ShouldHaveLength, 3)
				So(top[0].UserID, ShouldEqual, "u3") // 30 at t0 beats u1's 30 at t2
				So(top[1].UserID, ShouldEqual, "u1")
				So(top[2].UserID, ShouldEqual, "u2")
			})

			Convey("And repeated calls yield identical output", func() {
				again := ranking.RankTop(records, 10, "classic")
				So(again, ShouldResemble, top)
			})
		})

		Convey("When two records for one user tie on score", func() {
			ties := []model.ScoreRecord{
				record("u1", 10, t1),
				record("u1", 10, t0),
			}
			top := ranking.RankTop(ties, 1, "classic")

			Convey("Then the earlier timestamp is kept", func() {
				So(top, ShouldHaveLength, 1)
				So(top[0].Timestamp.Equal(t0), ShouldBeTrue)
			})
		})

		Convey("When records carry a different game mode", func() {
			other := append(records, model.ScoreRecord{
				UserID: "u9", Username: "ghost", Score: 999, Timestamp: t0, GameMode: "blitz",
			})
			top := ranking.RankTop(other, 10, "classic")

			Convey("Then they are filtered out", func() {
				So(top, ShouldHaveLength, 3)
				So(top[0].Score, ShouldEqual, 30)
			})
		})

		Convey("When a record has no user id", func() {
			noisy := append(records, model.ScoreRecord{
				Username: "orphan", Score: 999, Timestamp: t0, GameMode: "classic",
			})
			top := ranking.RankTop(noisy, 10, "classic")

			Convey("Then it is excluded rather than failing the call", func() {
				So(top, ShouldHaveLength, 3)
			})
		})

		Convey("When the requested limit is out of range", func() {
			Convey("Then it is clamped into [1,100]", func() {
				So(ranking.RankTop(records, 0, "classic"), ShouldHaveLength, 1)
				So(ranking.RankTop(records, -5, "classic"), ShouldHaveLength, 1)
				So(ranking.RankTop(records, 10000, "classic"), ShouldHaveLength, 3)
				So(ranking.ClampLimit(10000), ShouldEqual, 100)
			})
		})
	})
}
