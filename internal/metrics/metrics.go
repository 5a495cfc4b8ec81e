// Package metrics exposes Prometheus instrumentation for pipeline runs,
// stage throughput and LLM provider health.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeNoResult = "no_result"
	OutcomeError    = "error"
)

var (
	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_pipeline_runs_total",
			Help: "Total number of recommendation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	StageItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_stage_items",
			Help: "Number of items produced by a pipeline stage in the latest run",
		},
		[]string{"stage"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curator_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_llm_requests_total",
			Help: "Total number of LLM provider requests by operation and status",
		},
		[]string{"operation", "status"},
	)

	LLMFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curator_llm_fallbacks_total",
			Help: "Total number of deterministic fallbacks taken after an LLM failure",
		},
		[]string{"stage"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "curator_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	EmbeddingsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curator_embeddings_written_total",
			Help: "Total number of catalog embeddings upserted",
		},
	)
)

// RecordStage records the item count and duration of one stage.
func RecordStage(stage string, items int, duration time.Duration) {
	StageItems.WithLabelValues(stage).Set(float64(items))
	StageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRun increments the run counter for outcome.
func RecordRun(outcome string) {
	PipelineRuns.WithLabelValues(outcome).Inc()
}

// RecordLLMRequest counts one provider request.
func RecordLLMRequest(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	LLMRequests.WithLabelValues(operation, status).Inc()
}

// RecordFallback counts one deterministic fallback in stage.
func RecordFallback(stage string) {
	LLMFallbacks.WithLabelValues(stage).Inc()
}

// SetBreakerState publishes a circuit breaker state value.
func SetBreakerState(name string, state float64) {
	CircuitBreakerState.WithLabelValues(name).Set(state)
}
