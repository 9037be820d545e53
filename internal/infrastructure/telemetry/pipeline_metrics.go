package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "salesrecon"

// Stage names used as metric labels and span names.
const (
	StageSilver = "silver"
	StageGold   = "gold"
	StageTier   = "tier"
)

// PipelineMetrics holds the Prometheus collectors for pipeline runs.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type PipelineMetrics struct {
	registry *prometheus.Registry

	recordsRead   *prometheus.CounterVec
	forwarded     *prometheus.CounterVec
	quarantined   *prometheus.CounterVec
	upserted      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
	tierCount     prometheus.Gauge
	tierInertia   prometheus.Gauge
}

// NewPipelineMetrics creates the collectors on a private registry.
func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{
		registry: prometheus.NewRegistry(),
		recordsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_read_total",
			Help:      "Bronze records read, by source.",
		}, []string{"source"}),
		forwarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_forwarded_total",
			Help:      "Records forwarded past validation, by source.",
		}, []string{"source"}),
		quarantined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_quarantined_total",
			Help:      "Records with at least one violation, by source.",
		}, []string{"source"}),
		upserted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_upserted_total",
			Help:      "Rows written by the upsert merge, by table.",
		}, []string{"table"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Pipeline runs, by outcome.",
		}, []string{"outcome"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		tierCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "tier_clusters",
			Help:      "Number of clusters used by the last tiering run.",
		}),
		tierInertia: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "tier_inertia",
			Help:      "Within-cluster sum of squares of the last tiering run.",
		}),
	}

	m.registry.MustRegister(
		m.recordsRead, m.forwarded, m.quarantined, m.upserted,
		m.stageDuration, m.runsTotal, m.lastSuccess, m.tierCount, m.tierInertia,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveValidation records per-source counts from the silver stage.
func (m *PipelineMetrics) ObserveValidation(source string, read, forwarded, quarantined int) {
	m.recordsRead.WithLabelValues(source).Add(float64(read))
	m.forwarded.WithLabelValues(source).Add(float64(forwarded))
	m.quarantined.WithLabelValues(source).Add(float64(quarantined))
}

// ObserveUpsert records rows written to table.
func (m *PipelineMetrics) ObserveUpsert(table string, rows int) {
	m.upserted.WithLabelValues(table).Add(float64(rows))
}

// ObserveStage records how long a stage took.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveTiering records the cluster count and inertia of a tiering run.
func (m *PipelineMetrics) ObserveTiering(k int, inertia float64) {
	m.tierCount.Set(float64(k))
	m.tierInertia.Set(inertia)
}

// ObserveRun records a finished run.
func (m *PipelineMetrics) ObserveRun(err error, finishedAt time.Time) {
	if err != nil {
		m.runsTotal.WithLabelValues("failure").Inc()
		return
	}
	m.runsTotal.WithLabelValues("success").Inc()
	m.lastSuccess.Set(float64(finishedAt.Unix()))
}

// WriteTextfile writes the current values in the node_exporter textfile format.
func (m *PipelineMetrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Handler serves the registry for scraping.
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
