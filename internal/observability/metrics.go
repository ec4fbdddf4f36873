// Package observability holds the service's Prometheus instrumentation.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// rainfall pipeline.
type Metrics struct {
	FetchRequests *prometheus.CounterVec // labels: outcome={success,no_data,error,superseded}
	FetchDuration prometheus.Histogram

	ModelFits       *prometheus.CounterVec // labels: outcome={success,error}
	ModelFitSeconds prometheus.Histogram

	ExportRequests *prometheus.CounterVec // labels: kind={observations,profile}, outcome={success,no_data}

	CleanedRecords prometheus.Histogram
	ActiveSessions prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.ModelFits,
		m.ModelFitSeconds,
		m.ExportRequests,
		m.CleanedRecords,
		m.ActiveSessions,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_api",
			Name:      "fetch_requests_total",
			Help:      "Fetch triggers by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_api",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a fetch-and-clean cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		ModelFits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_api",
			Name:      "model_fits_total",
			Help:      "Generate triggers by outcome.",
		}, []string{"outcome"}),
		ModelFitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_api",
			Name:      "model_fit_duration_seconds",
			Help:      "Duration of a seasonal profile fit.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		ExportRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rainfall_api",
			Name:      "export_requests_total",
			Help:      "CSV export requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		CleanedRecords: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "rainfall_api",
			Name:      "cleaned_records",
			Help:      "Observation records surviving cleaning, per fetch.",
			Buckets:   []float64{1, 30, 90, 180, 365, 730, 1825, 3650},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rainfall_api",
			Name:      "active_sessions",
			Help:      "Number of sessions created and not yet expired.",
		}),
	}
}
