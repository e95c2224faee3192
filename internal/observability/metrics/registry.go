// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch metrics track feed crawling.
var (
	// ArticlesFetchedTotal counts articles fetched from each source
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_fetched_total",
			Help: "Total number of articles fetched from sources",
		},
		[]string{"source_id"},
	)

	// ArticlesInsertedTotal counts newly inserted (non-duplicate) articles per source
	ArticlesInsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_inserted_total",
			Help: "Total number of articles inserted after URL dedup",
		},
		[]string{"source_id"},
	)

	// FeedCrawlDuration measures time to crawl a feed source
	FeedCrawlDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_crawl_duration_seconds",
			Help:    "Time taken to crawl a feed source",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"source_id"},
	)

	// FeedCrawlErrorsTotal counts errors during feed crawling
	FeedCrawlErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_crawl_errors_total",
			Help: "Total number of feed crawl errors",
		},
		[]string{"source_id", "error_type"},
	)

	// ArticlesTotal tracks total number of articles in the database
	ArticlesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "articles_total",
			Help: "Total number of articles in the database",
		},
	)

	// SourcesTotal tracks total number of configured feed sources
	SourcesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sources_total",
			Help: "Total number of configured feed sources",
		},
	)
)

// Dedup metrics track near-duplicate filtering.
var (
	// DedupCandidatesTotal counts articles entering a dedup batch
	DedupCandidatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_candidates_total",
			Help: "Total number of articles considered for dedup",
		},
	)

	// DedupSurvivorsTotal counts articles surviving dedup
	DedupSurvivorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dedup_survivors_total",
			Help: "Total number of articles surviving dedup filtering",
		},
	)

	// DedupBatchDuration measures time to dedup one batch
	DedupBatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dedup_batch_duration_seconds",
			Help:    "Time taken to run the dedup pipeline over one batch",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// LLM stage metrics track relevance/classification/summarization calls.
var (
	// LLMCallsTotal counts LLM calls by stage and outcome
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_calls_total",
			Help: "Total number of LLM calls by stage and outcome",
		},
		[]string{"stage", "outcome"}, // stage: relevance|classify|summarize|recheck; outcome: success|transient_error|parse_error|invariant_violation
	)

	// LLMCallDuration measures LLM call latency by stage
	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_call_duration_seconds",
			Help:    "LLM call duration in seconds by stage",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"stage"},
	)

	// LLMTokensEstimated tracks the estimated token count of the last batch prompt per stage
	LLMTokensEstimated = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "llm_tokens_estimated",
			Help: "Estimated token count of the most recent batch prompt per stage",
		},
		[]string{"stage"},
	)
)

// Delivery metrics track digest delivery to chat channels.
var (
	// DigestDeliveriesTotal counts digest deliveries by channel and outcome
	DigestDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_deliveries_total",
			Help: "Total number of digest deliveries by channel and outcome",
		},
		[]string{"channel", "outcome"}, // outcome: success|failure|circuit_open
	)

	// DigestDeliveryDuration measures delivery latency
	DigestDeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digest_delivery_duration_seconds",
			Help:    "Digest delivery duration in seconds by channel",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)
)

// Database metrics track database performance.
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// SchedulerRunsTotal counts scheduled job runs by job name and outcome.
var SchedulerRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "scheduler_runs_total",
		Help: "Total number of scheduled job runs by job and outcome",
	},
	[]string{"job", "outcome"}, // job: hourly|daily; outcome: success|partial|failure
)
