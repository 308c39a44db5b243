package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the tracker's Prometheus metrics on a private registry
type Collector struct {
	reg *prometheus.Registry

	Runs *prometheus.CounterVec // status label: success|error

	FeedVehicles prometheus.Gauge

	RowsNew     prometheus.Counter
	RowsUpdated prometheus.Counter

	Rotations        prometheus.Counter
	RotationFailures prometheus.Counter
	RefreshFailures  prometheus.Counter

	RunDuration prometheus.Histogram
}

// NewCollector creates and registers all tracker metrics
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracker_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		FeedVehicles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tracker_feed_vehicles",
			Help: "Vehicles in the last polled batch.",
		}),
		RowsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_log_rows_new_total",
			Help: "Departure rows appended to the daily log.",
		}),
		RowsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_log_rows_updated_total",
			Help: "Departure rows overwritten in place in the daily log.",
		}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_rotations_total",
			Help: "Daily log rotations executed.",
		}),
		RotationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_rotation_failures_total",
			Help: "Rotation attempts that failed and will be retried.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tracker_summary_refresh_failures_total",
			Help: "Best-effort summary refreshes that failed.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tracker_run_duration_seconds",
			Help:    "Duration of a full pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}

	reg.MustRegister(
		c.Runs, c.FeedVehicles,
		c.RowsNew, c.RowsUpdated,
		c.Rotations, c.RotationFailures, c.RefreshFailures,
		c.RunDuration,
	)

	return c
}

// Handler exposes the registry for /metrics
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
