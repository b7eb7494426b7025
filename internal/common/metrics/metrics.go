// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChatRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_chat_requests_total",
			Help: "Chat requests handled, by route and status",
		},
		[]string{"route", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_chat_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"stage"},
	)

	LLMCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_chat_llm_calls_total",
			Help: "Language model calls, by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	LLMAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_chat_llm_attempts",
			Help:    "Attempts used per validator-gated invocation",
			Buckets: []float64{1, 2, 3, 4, 5, 6},
		},
	)

	RetrievalFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_chat_retrieval_fallbacks_total",
			Help: "Views re-queried without filters after an empty filtered result",
		},
		[]string{"view"},
	)

	RetrievalFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_chat_retrieval_failures_total",
			Help: "Per-view retrieval failures",
		},
		[]string{"view"},
	)

	KnowledgeDocuments = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analytics_chat_knowledge_documents",
			Help:    "Documents returned by hybrid knowledge search",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)
