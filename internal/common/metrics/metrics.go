// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_recommendations_total",
			Help: "Recommendation requests by outcome",
		},
		[]string{"outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "translator_recommendation_duration_seconds",
			Help:    "Duration of one recommendation request by stage",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"stage"},
	)

	RecommendationCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "translator_recommendation_candidates",
			Help:    "Number of catalog candidates per recommendation request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	CollaborativeEvidenceMissing = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "translator_recommendation_no_evidence_total",
			Help: "Requests whose language pair had no completed-order evidence",
		},
	)

	RecommendationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_recommendation_fallbacks_total",
			Help: "Jobs that completed with the language-filtered fallback list",
		},
		[]string{"reason"},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"},
	)

	StoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "translator_store_breaker_state",
			Help: "Store circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	StoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_store_requests_total",
			Help: "Guarded store reads by breaker and result",
		},
		[]string{"breaker", "result"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "translator_recommendation_events_total",
			Help: "Recommendation events by publish result",
		},
		[]string{"result"},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
	OutcomeTimeout = "timeout"

	StageCatalog = "catalog"
	StageScoring = "scoring"
	StageRanking = "ranking"
	StageTotal   = "total"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"

	ResultSuccess  = "success"
	ResultFailure  = "failure"
	ResultRejected = "rejected"
)
