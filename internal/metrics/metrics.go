package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	ResearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_research_requests_total",
			Help: "Total number of research requests by terminal outcome",
		},
		[]string{"outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "seeker_stage_duration_seconds",
			Help:    "Pipeline stage execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	SourcesPerRequest = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seeker_sources_per_request",
			Help:    "Number of distinct sources cited per request",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6},
		},
	)

	SubQuestionsPerRequest = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seeker_sub_questions_per_request",
			Help:    "Number of sub-questions researched per request",
			Buckets: []float64{1, 2, 3},
		},
	)

	// Safety metrics
	SafetyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_safety_rejections_total",
			Help: "Total number of texts rejected at each safety gate",
		},
		[]string{"gate"},
	)

	// Generation boundary metrics
	GenerationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seeker_generation_latency_seconds",
			Help:    "Generation provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	GenerationCapacityErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_generation_capacity_errors_total",
			Help: "Total number of capacity (rate limit) responses from the generation provider",
		},
	)

	// Retrieval boundary metrics
	SearchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeker_search_errors_total",
			Help: "Total number of swallowed search provider errors",
		},
	)

	ExtractionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_extraction_attempts_total",
			Help: "Total number of extraction strategy attempts by strategy and result",
		},
		[]string{"strategy", "result"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seeker_http_requests_total",
			Help: "Total number of HTTP requests by path and status",
		},
		[]string{"path", "status"},
	)
)
