// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AssessmentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_assessments_completed_total",
			Help: "Total number of assessments completed by assessor",
		},
		[]string{"assessor"},
	)

	AssessmentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auditor_assessments_failed_total",
			Help: "Total number of assessments failed by assessor",
		},
		[]string{"assessor", "error_kind"},
	)

	AssessmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "auditor_assessment_duration_seconds",
			Help: "Duration of single assessor calls in seconds",
		},
		[]string{"assessor"},
	)

	EvaluationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auditor_evaluations_active",
			Help: "Number of composite evaluations currently in flight",
		},
	)

	CompositeScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "auditor_composite_score",
			Help:    "Distribution of composite scores per evaluated chunk",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	DegradedEvaluations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_evaluations_degraded_total",
			Help: "Total number of composite evaluations missing at least one assessor",
		},
	)

	ChunksProduced = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_chunks_produced_total",
			Help: "Total number of chunks produced by the document pipeline",
		},
	)

	ChunksFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_chunks_filtered_total",
			Help: "Total number of chunks dropped by pre-evaluation filtering",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_result_cache_hits_total",
			Help: "Total number of composite result cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auditor_result_cache_misses_total",
			Help: "Total number of composite result cache misses",
		},
	)
)
