package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	RowsRead        prometheus.Counter
	RowsNormalized  prometheus.Counter
	RowsCommitted   prometheus.Counter
	RowsDuplicate   prometheus.Counter
	RowsSkipped     *prometheus.CounterVec // label: reason
	BatchesFailed   prometheus.Counter
	PipelineRunning prometheus.Gauge

	// Batch processing metrics.
	BatchSize           prometheus.Histogram
	BatchCommitDuration prometheus.Histogram

	// Aggregation metrics.
	AggregatesWritten   prometheus.Gauge
	AggregationDuration prometheus.Histogram
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "rows_read_total",
			Help:      "Total raw rows read from the source file.",
		}),
		RowsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "rows_normalized_total",
			Help:      "Total rows that passed normalization and reference resolution.",
		}),
		RowsCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "rows_committed_total",
			Help:      "Total fact rows durably written.",
		}),
		RowsDuplicate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "rows_duplicate_total",
			Help:      "Rows skipped because their source key was already loaded.",
		}),
		RowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "rows_skipped_total",
			Help:      "Rows dropped during normalization or resolution, by reason.",
		}, []string{"reason"}),
		BatchesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "crz_etl",
			Name:      "batches_failed_total",
			Help:      "Batch transactions rolled back by the storage engine.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crz_etl",
			Name:      "pipeline_running",
			Help:      "1 while a load is active, 0 otherwise.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crz_etl",
			Name:      "batch_size",
			Help:      "Number of fact rows per committed batch.",
			Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}),
		BatchCommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crz_etl",
			Name:      "batch_commit_duration_seconds",
			Help:      "Duration of one batch insert transaction.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		AggregatesWritten: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "crz_etl",
			Name:      "aggregates_written",
			Help:      "Daily aggregate rows produced by the last recompute.",
		}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "crz_etl",
			Name:      "aggregation_duration_seconds",
			Help:      "Duration of the full aggregate recompute, fact scan included.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
	}

	prometheus.MustRegister(
		m.RowsRead,
		m.RowsNormalized,
		m.RowsCommitted,
		m.RowsDuplicate,
		m.RowsSkipped,
		m.BatchesFailed,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchCommitDuration,
		m.AggregatesWritten,
		m.AggregationDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsRead:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crz_etl", Name: "rows_read_total"}),
		RowsNormalized:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crz_etl", Name: "rows_normalized_total"}),
		RowsCommitted:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crz_etl", Name: "rows_committed_total"}),
		RowsDuplicate:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crz_etl", Name: "rows_duplicate_total"}),
		RowsSkipped:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "crz_etl", Name: "rows_skipped_total"}, []string{"reason"}),
		BatchesFailed:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "crz_etl", Name: "batches_failed_total"}),
		PipelineRunning:     prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crz_etl", Name: "pipeline_running"}),
		BatchSize:           prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crz_etl", Name: "batch_size"}),
		BatchCommitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crz_etl", Name: "batch_commit_duration_seconds"}),
		AggregatesWritten:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "crz_etl", Name: "aggregates_written"}),
		AggregationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "crz_etl", Name: "aggregation_duration_seconds"}),
	}
}
