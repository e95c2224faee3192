// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all pipeline metrics including:
//   - Fetch metrics (articles found/inserted, crawl duration, crawl errors)
//   - Dedup metrics (candidates in/out, batch duration)
//   - LLM stage metrics (relevance/classification/summarization calls, duration, errors)
//   - Delivery metrics (digest sends, webhook errors)
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry.
// No HTTP endpoint in this module serves them.
//
// Example usage:
//
//	import "reputwatch/internal/observability/metrics"
//
//	func crawlSource(source entity.FeedSource) {
//	    start := time.Now()
//	    // ... crawl ...
//	    metrics.RecordFeedCrawl(source.ID, time.Since(start), found, inserted)
//	}
package metrics
