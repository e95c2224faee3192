package metrics

import (
	"fmt"
	"time"
)

// RecordFeedCrawl records the result of a single source crawl: items found,
// items inserted after URL dedup, and the time taken.
func RecordFeedCrawl(sourceID int64, duration time.Duration, found, inserted int) {
	id := fmt.Sprintf("%d", sourceID)
	FeedCrawlDuration.WithLabelValues(id).Observe(duration.Seconds())
	if found > 0 {
		ArticlesFetchedTotal.WithLabelValues(id).Add(float64(found))
	}
	if inserted > 0 {
		ArticlesInsertedTotal.WithLabelValues(id).Add(float64(inserted))
	}
}

// RecordFeedCrawlError records an error encountered while crawling a source.
func RecordFeedCrawlError(sourceID int64, errorType string) {
	FeedCrawlErrorsTotal.WithLabelValues(fmt.Sprintf("%d", sourceID), errorType).Inc()
}

// UpdateArticlesTotal updates the gauge tracking total articles in the database.
func UpdateArticlesTotal(count int) {
	ArticlesTotal.Set(float64(count))
}

// UpdateSourcesTotal updates the gauge tracking total configured feed sources.
func UpdateSourcesTotal(count int) {
	SourcesTotal.Set(float64(count))
}

// RecordDedupBatch records the result of one dedup pass: candidates in,
// survivors out, and the time taken.
func RecordDedupBatch(duration time.Duration, candidates, survivors int) {
	DedupBatchDuration.Observe(duration.Seconds())
	DedupCandidatesTotal.Add(float64(candidates))
	DedupSurvivorsTotal.Add(float64(survivors))
}

// RecordLLMCall records the outcome and duration of one LLM stage call.
// stage is one of "relevance", "classify", "summarize", "recheck".
// outcome is one of "success", "transient_error", "parse_error", "invariant_violation".
func RecordLLMCall(stage, outcome string, duration time.Duration) {
	LLMCallsTotal.WithLabelValues(stage, outcome).Inc()
	LLMCallDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordLLMTokensEstimated records the estimated token count of the most
// recent batch prompt sent for a given stage.
func RecordLLMTokensEstimated(stage string, tokens int) {
	LLMTokensEstimated.WithLabelValues(stage).Set(float64(tokens))
}

// RecordDigestDelivery records the outcome and duration of a digest delivery
// attempt to a channel ("discord", "slack", "telegram").
func RecordDigestDelivery(channel, outcome string, duration time.Duration) {
	DigestDeliveriesTotal.WithLabelValues(channel, outcome).Inc()
	DigestDeliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "insert_many", "select_by_window").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// RecordSchedulerRun records the outcome of a scheduled job run.
// job is one of "hourly", "daily". outcome is "success", "partial" or "failure".
func RecordSchedulerRun(job, outcome string) {
	SchedulerRunsTotal.WithLabelValues(job, outcome).Inc()
}
