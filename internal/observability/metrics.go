package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the answer pipeline.
//
// Usage:
//
//	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
//	metrics.RecordAnswer("simple", "llama-3.1-8b-instant", false)
type Metrics struct {
	// AnswerCounter counts answered queries.
	// Labels: classification, model, flagged (true|false)
	AnswerCounter *prometheus.CounterVec

	// GuardrailCounter counts guardrail short-circuits.
	// Labels: rule
	GuardrailCounter *prometheus.CounterVec

	// CompletionDuration measures completion calls in seconds.
	// Labels: model, status (success|error)
	CompletionDuration *prometheus.HistogramVec

	// RetrievalDuration measures embedding plus corpus scan in seconds
	RetrievalDuration prometheus.Histogram

	// EmbeddingCacheCounter counts query embedding cache lookups.
	// Labels: result (hit|miss)
	EmbeddingCacheCounter *prometheus.CounterVec

	// RoutingLogDropped counts routing log entries dropped on a full buffer
	RoutingLogDropped prometheus.Counter
}

// NewMetrics creates and registers all collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AnswerCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clearpath_answers_total",
				Help: "Total number of answered queries by classification, model and flagged state",
			},
			[]string{"classification", "model", "flagged"},
		),

		GuardrailCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clearpath_guardrail_hits_total",
				Help: "Total number of queries refused by a guardrail rule",
			},
			[]string{"rule"},
		),

		CompletionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "clearpath_completion_duration_seconds",
				Help:    "Duration of completion requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"model", "status"},
		),

		RetrievalDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "clearpath_retrieval_duration_seconds",
				Help:    "Duration of query embedding and corpus scan in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),

		EmbeddingCacheCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "clearpath_embedding_cache_lookups_total",
				Help: "Query embedding cache lookups by result",
			},
			[]string{"result"},
		),

		RoutingLogDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "clearpath_routing_log_dropped_total",
				Help: "Routing log entries dropped because the buffer was full",
			},
		),
	}
}

// RecordAnswer records a completed answer
func (m *Metrics) RecordAnswer(classification, model string, flagged bool) {
	if m == nil {
		return
	}
	m.AnswerCounter.WithLabelValues(classification, model, strconv.FormatBool(flagged)).Inc()
}

// RecordGuardrail records a guardrail short-circuit
func (m *Metrics) RecordGuardrail(rule string) {
	if m == nil {
		return
	}
	m.GuardrailCounter.WithLabelValues(rule).Inc()
}

// RecordCompletion records a completion call
func (m *Metrics) RecordCompletion(model, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CompletionDuration.WithLabelValues(model, status).Observe(durationSeconds)
}

// RecordRetrieval records a retrieval pass
func (m *Metrics) RecordRetrieval(durationSeconds float64) {
	if m == nil {
		return
	}
	m.RetrievalDuration.Observe(durationSeconds)
}

// RecordEmbeddingCache records a cache lookup
func (m *Metrics) RecordEmbeddingCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.EmbeddingCacheCounter.WithLabelValues(result).Inc()
}

// RecordRoutingLogDropped records a dropped routing log entry
func (m *Metrics) RecordRoutingLogDropped() {
	if m == nil {
		return
	}
	m.RoutingLogDropped.Inc()
}
