package metrics_test

import (
	"testing"

	"github.com/okian/dodgestorm/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(
			metrics.WithNamespace("test"),
			metrics.WithSubsystem("leaderboard"),
			metrics.WithPrometheusRegistry(reg),
		)
		So(m, ShouldNotBeNil)

		Convey("Then all metric families are registered", func() {
			families, err := reg.Gather()
			So(err, ShouldBeNil)
			// Vec metrics without observations do not show up in Gather,
			// so only assert the registry is non-trivially populated.
			So(len(families), ShouldBeGreaterThan, 10)
		})
	})
}

func TestGlobalHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through package helpers", func() {
			Convey("Then no helper panics", func() {
				So(func() {
					metrics.RecordSubmissionAccepted()
					metrics.RecordSubmissionRejected("implausible_score")
					metrics.RecordSubmissionLatency(12.5)
					metrics.RecordBroadcast(3)
					metrics.RecordBroadcastFailure()
					metrics.RecordSnapshotDropped()
					metrics.UpdateLiveConnections(7)
					metrics.RecordConnectionOpened()
					metrics.RecordConnectionPruned()
					metrics.RecordStoreAppendLatency(1.0)
					metrics.RecordStoreQueryLatency(2.0)
					metrics.UpdateRecordsTotal(100)
					metrics.UpdateQueueSize(5)
					metrics.UpdateQueueCapacity(1024)
					metrics.RecordUserRegistered()
					metrics.RecordAuthFailure()
					metrics.RecordHTTPRequest("submit", "POST", "200")
					metrics.RecordHTTPRequestDuration("submit", "POST", "200", 3.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When fetching the registry", func() {
			So(metrics.GetRegistry(), ShouldNotBeNil)
		})
	})
}
