package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asset_rating"

// Metrics holds the Prometheus counters and histograms for rating and batch processing.
type Metrics struct {
	Ratings          *prometheus.CounterVec // labels: asset_type, rating
	ValidationErrors *prometheus.CounterVec // labels: asset_type

	// Batch pipeline metrics.
	BatchRuns        *prometheus.CounterVec // labels: outcome={success,error}
	BatchRows        prometheus.Histogram
	BatchDuration    prometheus.Histogram
	BatchDiagnostics *prometheus.CounterVec // labels: reason
	SinkErrors       prometheus.Counter

	// Output file retention.
	OutputFilesSwept prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Ratings,
		m.ValidationErrors,
		m.BatchRuns,
		m.BatchRows,
		m.BatchDuration,
		m.BatchDiagnostics,
		m.SinkErrors,
		m.OutputFilesSwept,
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
		Ratings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratings_total",
			Help:      "Assets rated, by asset type and resulting condition.",
		}, []string{"asset_type", "rating"}),
		ValidationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_errors_total",
			Help:      "Inputs rejected by validation, by asset type.",
		}, []string{"asset_type"}),
		BatchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_runs_total",
			Help:      "CSV batch runs by outcome.",
		}, []string{"outcome"}),
		BatchRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_rows",
			Help:      "Rows per CSV batch.",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 10000},
		}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Duration of a complete CSV batch run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		BatchDiagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_diagnostics_total",
			Help:      "Batch rows that could not be rated, by diagnostic reason.",
		}, []string{"reason"}),
		SinkErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_errors_total",
			Help:      "Failures publishing rated rows to the event sink.",
		}),
		OutputFilesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "output_files_swept_total",
			Help:      "Generated output files removed by the retention sweep.",
		}),
	}
}
