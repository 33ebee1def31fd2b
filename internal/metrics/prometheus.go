package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	QuestionsDrafted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfp_questions_drafted_total",
			Help: "Questions processed by the drafting pipeline",
		},
		[]string{"status"},
	)

	NeedsReviewTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfp_needs_review_total",
			Help: "Drafts flagged for human review",
		},
	)

	TopScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rfp_top_score",
			Help:    "Top similarity score per question",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rfp_pipeline_duration_seconds",
			Help:    "End-to-end pipeline run duration",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	QuestionsExtracted = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rfp_questions_extracted",
			Help:    "Questions extracted per uploaded document",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
	)

	AnswersIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfp_answers_ingested_total",
			Help: "Approved answers embedded into the vector store",
		},
	)

	EmbeddingCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfp_embedding_cache_hits_total",
			Help: "Embedding cache hits",
		},
	)

	EmbeddingCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rfp_embedding_cache_misses_total",
			Help: "Embedding cache misses",
		},
	)
)

func Init() {
	prometheus.MustRegister(QuestionsDrafted)
	prometheus.MustRegister(NeedsReviewTotal)
	prometheus.MustRegister(TopScore)
	prometheus.MustRegister(PipelineDuration)
	prometheus.MustRegister(QuestionsExtracted)
	prometheus.MustRegister(AnswersIngested)
	prometheus.MustRegister(EmbeddingCacheHits)
	prometheus.MustRegister(EmbeddingCacheMisses)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
