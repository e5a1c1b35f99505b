package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragstack_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragstack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragstack_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
	)

	AuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragstack_auth_failures_total",
			Help: "Total number of failed authentications",
		},
	)

	RAGQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragstack_rag_queries_total",
			Help: "Total number of RAG queries processed",
		},
	)

	RAGStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ragstack_rag_stage_duration_seconds",
			Help:    "Duration of RAG pipeline stages in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	DocumentsIngestedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ragstack_documents_ingested_total",
			Help: "Total number of documents accepted for ingestion",
		},
	)

	QueueJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ragstack_queue_jobs_total",
			Help: "Total number of queue jobs consumed",
		},
		[]string{"queue", "outcome"},
	)
)
