package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's prometheus metrics.
type Collector struct {
	reg *prometheus.Registry

	PollCycles   prometheus.Counter
	PollFailures prometheus.Counter
	PollDuration prometheus.Histogram
	VehiclesSeen prometheus.Gauge
	VisitsEmitted prometheus.Counter

	RefreshTotal    prometheus.Counter
	RefreshFailures prometheus.Counter

	RetentionDeleted *prometheus.CounterVec // table label: snapshots|visits
}

// NewCollector builds and registers the metric set.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PollCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportmap_poll_cycles_total",
			Help: "Total completed poll cycles, including failed ones.",
		}),
		PollFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportmap_poll_failures_total",
			Help: "Total poll cycles that ended in error.",
		}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transportmap_poll_duration_seconds",
			Help:    "Duration of fetch-detect-persist cycles.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		VehiclesSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "transportmap_vehicles_seen",
			Help: "Vehicles returned by the last successful poll cycle.",
		}),
		VisitsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportmap_stop_visits_total",
			Help: "Total stop-visit events emitted by the detector.",
		}),
		RefreshTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportmap_static_refreshes_total",
			Help: "Total static reference refresh attempts.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transportmap_static_refresh_failures_total",
			Help: "Total failed static reference refreshes.",
		}),
		RetentionDeleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transportmap_retention_deleted_total",
			Help: "Rows removed by the retention sweeper.",
		}, []string{"table"}),
	}

	reg.MustRegister(
		c.PollCycles, c.PollFailures, c.PollDuration, c.VehiclesSeen, c.VisitsEmitted,
		c.RefreshTotal, c.RefreshFailures, c.RetentionDeleted,
	)

	return c
}

// Handler returns the /metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}
