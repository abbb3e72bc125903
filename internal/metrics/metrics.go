package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder collects predictor and rollover metrics.
type Recorder struct {
	registry *prometheus.Registry
	queries  *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	islands  *prometheus.CounterVec
	lastRun  prometheus.Gauge
}

// New creates a recorder backed by its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		queries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnips_queries_total",
				Help: "Total number of prediction queries answered",
			},
			[]string{"query"},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnips_query_errors_total",
				Help: "Total number of prediction queries that failed",
			},
			[]string{"query", "kind"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "turnips_query_duration_seconds",
				Help:    "Duration of prediction queries in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		islands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "turnips_rollover_islands_total",
				Help: "Islands visited by the weekly rollover, by outcome",
			},
			[]string{"result"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "turnips_rollover_last_run_timestamp_seconds",
				Help: "Unix time of the last finished rollover",
			},
		),
	}
}

// RecordQuery records a query and how long it took.
func (r *Recorder) RecordQuery(query string, d time.Duration) {
	r.queries.WithLabelValues(query).Inc()
	r.latency.WithLabelValues(query).Observe(d.Seconds())
}

// RecordError records a failed query.
func (r *Recorder) RecordError(query, kind string) {
	r.errors.WithLabelValues(query, kind).Inc()
}

// RecordRollover records the outcome of one rollover run.
func (r *Recorder) RecordRollover(rolled, current, failed int, at time.Time) {
	r.islands.WithLabelValues("rolled").Add(float64(rolled))
	r.islands.WithLabelValues("current").Add(float64(current))
	r.islands.WithLabelValues("failed").Add(float64(failed))
	r.lastRun.Set(float64(at.Unix()))
}

// Handler exposes the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
