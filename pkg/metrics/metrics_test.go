package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors are registered under the stylist namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.Enabled(), ShouldBeTrue)
				manager.jobsSubmitted.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				var names []string
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(names, ShouldContain, "stylist_engine_jobs_submitted_total")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("sub"),
				WithMetricPrefix("pre"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithMetricsEnabled(false),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names and labels follow the options", func() {
				So(manager.Enabled(), ShouldBeFalse)
				manager.rankingUpdates.Inc()
				So(testutil.ToFloat64(manager.rankingUpdates), ShouldEqual, 1)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_sub_pre_ranking_updates_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording engine metrics", func() {
			before := testutil.ToFloat64(globalManager.engineErrors.WithLabelValues("invalid_feature"))
			RecordEngineError("invalid_feature")

			Convey("Then counters move", func() {
				So(testutil.ToFloat64(globalManager.engineErrors.WithLabelValues("invalid_feature")), ShouldEqual, before+1)
			})

			Convey("And histogram helpers do not panic", func() {
				So(func() {
					RecordCompatibility("sync", 1.5, 0.82)
					RecordOccasionMatches(3)
					RecordRecommendations("idea", 4)
					RecordBatchSize(10)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording pipeline metrics", func() {
			UpdateQueueCapacity(100)
			UpdateQueueSize(7)
			UpdateWorkerCount(4)
			UpdateWorkerActiveCount(2)
			UpdateRankedOutfits(12)

			Convey("Then gauges hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.rankedOutfits), ShouldEqual, 12)
			})

			Convey("And counters do not panic", func() {
				So(func() {
					RecordJobSubmitted()
					RecordJobDuplicate()
					RecordJobProcessed()
					RecordRankingUpdate()
					RecordQueueEnqueueError()
					RecordWorkerError()
					RecordWorkerProcessingLatency(3)
					RecordRepositoryLatency("put", 0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording source and HTTP metrics", func() {
			UpdateBreakerState("wardrobe", 2)

			Convey("Then the breaker gauge reflects the state", func() {
				So(testutil.ToFloat64(globalManager.breakerState.WithLabelValues("wardrobe")), ShouldEqual, 2)
			})

			Convey("And the remaining helpers do not panic", func() {
				So(func() {
					RecordSourceLatency("snapshot", "ok", 4)
					RecordHTTPRequest("/v1/compatibility", "POST", "200")
					RecordHTTPRequestDuration("/v1/compatibility", "POST", "200", 2)
					RecordRateLimited()
					RecordAuthFailure("expired")
					RecordErrorByComponent("worker", "score_failed")
				}, ShouldNotPanic)
			})
		})

		Convey("When asking for the registry", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
