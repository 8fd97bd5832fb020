package metrics

import "github.com/prometheus/client_golang/prometheus"

// Inference Prometheus metrics.
var (
	AssessmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "assessments_total",
			Help:      "Total number of symptom assessments",
		},
		[]string{"tier", "outcome"},
	)

	PredictionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "prediction_duration_seconds",
			Help:      "Inference backend prediction duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"tier"},
	)

	TierFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "tier_fallbacks_total",
			Help:      "Total fallbacks from a failed tier to the next one",
		},
		[]string{"from", "to"},
	)

	UnmatchedSymptomsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "unmatched_symptoms_total",
			Help:      "Total reported symptoms that missed the tier vocabulary",
		},
	)

	AssessmentCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "assessment_cache_total",
			Help:      "Assessment cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

var inferenceMetricsRegistered bool

// RegisterInferenceMetrics registers Prometheus inference metrics. Must be called once from main.
func RegisterInferenceMetrics() {
	if inferenceMetricsRegistered {
		return
	}
	prometheus.MustRegister(AssessmentsTotal)
	prometheus.MustRegister(PredictionDuration)
	prometheus.MustRegister(TierFallbacksTotal)
	prometheus.MustRegister(UnmatchedSymptomsTotal)
	prometheus.MustRegister(AssessmentCacheTotal)
	inferenceMetricsRegistered = true
}
