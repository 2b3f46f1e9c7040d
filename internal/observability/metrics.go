// Package observability groups the Prometheus instruments and the rolling
// per-stage latency window for the conversation pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions    prometheus.Gauge
	TurnsProcessed    prometheus.Counter
	EntitiesExtracted *prometheus.CounterVec
	ScamDetections    *prometheus.CounterVec
	Replies           *prometheus.CounterVec
	Callbacks         *prometheus.CounterVec
	WSMessages        *prometheus.CounterVec
	PipelineLatency   prometheus.Histogram

	stages *stageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions resident in the arena.",
		}),
		TurnsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_processed_total",
			Help:      "Inbound turns run through the pipeline.",
		}),
		EntitiesExtracted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_extracted_total",
			Help:      "Newly extracted entities by category.",
		}, []string{"category"}),
		ScamDetections: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scam_detections_total",
			Help:      "Sessions crossing the detection threshold, by scam type.",
		}, []string{"scam_type"}),
		Replies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Rendered replies by persona and strategy move.",
		}, []string{"persona", "move"}),
		Callbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "callback_deliveries_total",
			Help:      "Final-result callback deliveries by outcome.",
		}, []string{"outcome"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_latency_ms",
			Help:      "End-to-end analyze latency in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}),
		stages: newStageWindow(256),
	}
}

// ObserveStage records one pipeline stage duration into the rolling window.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stages.Observe(stage, float64(d.Microseconds())/1000)
}

// ObservePipeline records the whole-turn latency.
func (m *Metrics) ObservePipeline(d time.Duration) {
	m.PipelineLatency.Observe(float64(d.Microseconds()) / 1000)
	m.ObserveStage("pipeline_total", d)
}

// SnapshotStages returns the rolling stage latency snapshot served at
// /v1/perf/latency.
func (m *Metrics) SnapshotStages() StageSnapshot {
	return m.stages.Snapshot()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
