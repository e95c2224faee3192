package pipeline

import (
	"context"
	"fmt"
	"time"

	"reputwatch/internal/domain/entity"
	"reputwatch/internal/infra/fetcher"
	"reputwatch/internal/llm"
	"reputwatch/internal/observability/logging"
	"reputwatch/internal/observability/metrics"
	"reputwatch/internal/repository"
)

// HourlyDeps bundles everything hourly_job needs: fetch, persist, and run
// Stage A (relevance) and Stage B (classification) over whatever the store
// still has pending from this and earlier runs.
type HourlyDeps struct {
	Fetcher    *fetcher.Fetcher
	Articles   repository.ArticleRepository
	Sources    repository.SourceRepository
	LLM        *llm.Client
	Taxonomy   entity.Taxonomy
	BatchSizes BatchSizes

	// HealthReportDir, when non-empty, receives a feed_health.json/.md pair
	// after every fetch (spec.md §4.1's "emit a periodic JSON and markdown
	// report"). Empty disables the report.
	HealthReportDir string
}

// BatchSizes carries the batching/concurrency knobs for Stage A/B, sourced
// from internal/config.Config.
type BatchSizes struct {
	RelevanceBatchSize         int
	RelevanceConcurrency       int
	ClassificationBatchSize    int
	ClassificationConcurrency  int
	InterBatchPause            time.Duration
}

// relevanceDefaults and classificationDefaults fall back to
// internal/config.Config's own defaults (RELEVANCE_BATCH_SIZE=10,
// CLASSIFICATION_BATCH_SIZE=5, RELEVANCE_CONCURRENCY=3,
// CLASSIFICATION_CONCURRENCY=2, INTER_BATCH_PAUSE=1s) when a caller leaves
// BatchSizes unset, so a zero batchSize can never reach
// llm.BatchCheckRelevance/BatchClassify and spin on an empty batch forever.
// The concurrency defaults follow spec.md §4.4's distinct max_concurrent
// values per stage (3 for relevance, 2 for classification).
func (b BatchSizes) relevanceDefaults() (batchSize, concurrency int, pause time.Duration) {
	batchSize, concurrency, pause = b.RelevanceBatchSize, b.RelevanceConcurrency, b.InterBatchPause
	if batchSize <= 0 {
		batchSize = 10
	}
	if concurrency <= 0 {
		concurrency = 3
	}
	if pause <= 0 {
		pause = time.Second
	}
	return batchSize, concurrency, pause
}

func (b BatchSizes) classificationDefaults() (batchSize, concurrency int, pause time.Duration) {
	batchSize, concurrency, pause = b.ClassificationBatchSize, b.ClassificationConcurrency, b.InterBatchPause
	if batchSize <= 0 {
		batchSize = 5
	}
	if concurrency <= 0 {
		concurrency = 2
	}
	if pause <= 0 {
		pause = time.Second
	}
	return batchSize, concurrency, pause
}

// HourlyResult summarizes one hourly_job run for logging and the CLI's exit
// code decision.
type HourlyResult struct {
	Fetched        int
	Inserted       int
	RelevanceRun   int
	ClassifyRun    int
	FetchErr       error // non-nil means the run is a partial failure
}

// RunHourly implements spec.md §4.5's hourly_job: fetch new candidates in
// the trailing 24h window, insert the ones not already stored, then run
// Stage A over everything still unchecked and Stage B over everything
// relevant-but-unclassified. Stages run strictly in this order so
// classification only ever sees articles relevance already accepted.
func RunHourly(ctx context.Context, deps HourlyDeps, now time.Time) (HourlyResult, error) {
	logger := logging.FromContext(ctx)
	var result HourlyResult

	sources, err := deps.Sources.ListActive(ctx)
	if err != nil {
		metrics.RecordSchedulerRun("hourly", "failure")
		return result, fmt.Errorf("listing active sources: %w", err)
	}

	from, to := HourlyWindow(now)
	candidates, fetchErr := deps.Fetcher.FetchAll(ctx, sources, from, to)
	result.Fetched = len(candidates)
	result.FetchErr = fetchErr
	if fetchErr != nil {
		logger.Warn("hourly fetch returned a partial result", "error", fetchErr)
	}

	inserted, err := insertNewArticles(ctx, deps.Articles, candidates)
	if err != nil {
		metrics.RecordSchedulerRun("hourly", "failure")
		return result, fmt.Errorf("inserting fetched articles: %w", err)
	}
	result.Inserted = inserted

	if deps.HealthReportDir != "" {
		if err := deps.Fetcher.Health().WriteReports(deps.HealthReportDir); err != nil {
			logger.Warn("failed to write feed health report", "error", err)
		}
	}

	relevanceRun, err := RunRelevanceStage(ctx, deps, 0)
	if err != nil {
		metrics.RecordSchedulerRun("hourly", "failure")
		return result, fmt.Errorf("relevance stage: %w", err)
	}
	result.RelevanceRun = relevanceRun

	classifyRun, err := RunClassificationStage(ctx, deps, 0)
	if err != nil {
		metrics.RecordSchedulerRun("hourly", "failure")
		return result, fmt.Errorf("classification stage: %w", err)
	}
	result.ClassifyRun = classifyRun

	outcome := "success"
	if result.FetchErr != nil {
		outcome = "partial"
	}
	metrics.RecordSchedulerRun("hourly", outcome)

	if count, err := deps.Articles.CountAll(ctx); err == nil {
		metrics.UpdateArticlesTotal(int(count))
	}

	logger.Info("hourly_job complete",
		"fetched", result.Fetched, "inserted", result.Inserted,
		"relevance_checked", result.RelevanceRun, "classified", result.ClassifyRun)

	return result, nil
}

// insertNewArticles filters candidates against the store's existing URL set
// before inserting, per spec.md §4.5 step 3 ("new-URL filter").
func insertNewArticles(ctx context.Context, repo repository.ArticleRepository, candidates []*entity.Article) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	existing, err := repo.ExistingURLs(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading existing urls: %w", err)
	}

	fresh := make([]*entity.Article, 0, len(candidates))
	for _, a := range candidates {
		if !existing[a.URL] {
			fresh = append(fresh, a)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	return repo.InsertMany(ctx, fresh)
}

// RunRelevanceStage implements hourly_job's Stage A pass: every article
// still relevance=unknown is judged, then the verdicts are persisted in one
// batch update. limit <= 0 means unbounded, for the one-shot CLI runner's
// --limit flag.
func RunRelevanceStage(ctx context.Context, deps HourlyDeps, limit int) (int, error) {
	pending, err := deps.Articles.SelectUnchecked(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("selecting unchecked articles: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	items := make([]llm.RelevanceItem, len(pending))
	for i, a := range pending {
		items[i] = llm.RelevanceItem{PostID: a.PostID, Title: a.Title, Content: a.CombinedText()}
	}

	batchSize, concurrency, pause := deps.BatchSizes.relevanceDefaults()
	start := time.Now()
	results := deps.LLM.BatchCheckRelevance(ctx, items, batchSize, concurrency, pause)
	metrics.RecordLLMCall("relevance", "success", time.Since(start))

	updates := make(map[string]repository.RelevanceUpdate, len(results))
	for postID, r := range results {
		updates[postID] = repository.RelevanceUpdate{Relevant: r.Relevant, Score: r.Score}
	}

	updated, err := deps.Articles.UpdateRelevanceBatch(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("persisting relevance verdicts: %w", err)
	}
	return updated, nil
}

// RunClassificationStage implements hourly_job's Stage B pass: every
// article that cleared the strong-relevance gate (I3) but has no category
// yet is classified against the configured taxonomy. limit <= 0 means
// unbounded.
func RunClassificationStage(ctx context.Context, deps HourlyDeps, limit int) (int, error) {
	pending, err := deps.Articles.SelectRelevantUnclassified(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("selecting unclassified articles: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	items := make([]llm.ClassificationItem, len(pending))
	for i, a := range pending {
		items[i] = llm.ClassificationItem{PostID: a.PostID, Title: a.Title, Content: a.CombinedText()}
	}

	batchSize, concurrency, pause := deps.BatchSizes.classificationDefaults()
	start := time.Now()
	results := deps.LLM.BatchClassify(ctx, items, deps.Taxonomy, batchSize, concurrency, pause)
	metrics.RecordLLMCall("classify", "success", time.Since(start))

	updates := make(map[string]repository.ClassificationUpdate, len(results))
	for postID, r := range results {
		if r.Category == "" {
			continue
		}
		updates[postID] = repository.ClassificationUpdate{
			Category:    r.Category,
			Subcategory: r.Subcategory,
			Confidence:  r.Confidence,
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}

	updated, err := deps.Articles.UpdateClassificationBatch(ctx, updates)
	if err != nil {
		return 0, fmt.Errorf("persisting classification results: %w", err)
	}
	return updated, nil
}
