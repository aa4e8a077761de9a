package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfsight_analysis_duration_seconds",
			Help:    "Display analysis duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsight_analysis_total",
			Help: "Total number of analyses processed",
		},
		[]string{"status"},
	)

	DetectionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfsight_detection_failures_total",
			Help: "Detection calls that ended in a soft failure",
		},
	)

	AccuracyScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shelfsight_accuracy_score",
			Help:    "Detection accuracy per analysis",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RunsPersisted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfsight_runs_persisted_total",
			Help: "Analysis runs written to the store",
		},
	)

	RunsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfsight_runs_deduplicated_total",
			Help: "Save attempts skipped by the signature guard",
		},
	)

	VisionTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsight_vision_tokens_used",
			Help: "Total vision model tokens used",
		},
		[]string{"model", "type"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsight_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfsight_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)
)

func Init() {
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisTotal)
	prometheus.MustRegister(DetectionFailures)
	prometheus.MustRegister(AccuracyScore)
	prometheus.MustRegister(RunsPersisted)
	prometheus.MustRegister(RunsDeduplicated)
	prometheus.MustRegister(VisionTokensUsed)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
