package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
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
				WithMetricsEnabled(true),
				WithRefreshInterval(10*time.Second),
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
		Convey("When recording interview metrics", func() {
			Convey("Then it should record session lifecycle events", func() {
				So(func() {
					RecordSessionStarted()
					RecordSessionCompleted()
					RecordSessionExpired()
					RecordComparisonAsked()
					RecordInterviewLength(4)
				}, ShouldNotPanic)
			})

			Convey("Then it should update gauges", func() {
				So(func() {
					UpdateActiveSessions(3)
					UpdateItemsTracked(42)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording store and HTTP metrics", func() {
			Convey("Then it should record labelled observations", func() {
				So(func() {
					ObserveStoreLatency("update_values", 1.5)
					RecordHTTPRequest("/interactions", "POST", "200")
					RecordHTTPRequestDuration("/interactions", "POST", "200", 12.5)
				}, ShouldNotPanic)
			})
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the global registry", t, func() {
		Convey("When fetched", func() {
			registry := GetRegistry()

			Convey("Then it should expose the registered metric families", func() {
				So(registry, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
