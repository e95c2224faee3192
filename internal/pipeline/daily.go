package pipeline

import (
	"context"
	"fmt"
	"time"

	"reputwatch/internal/dedup"
	"reputwatch/internal/domain/entity"
	"reputwatch/internal/llm"
	"reputwatch/internal/observability/logging"
	"reputwatch/internal/observability/metrics"
	"reputwatch/internal/repository"
	"reputwatch/internal/usecase/notify"
)

// MaxStories bounds the number of items select_top_N keeps for one digest
// (spec.md §4.5 daily_job step 5).
const MaxStories = 7

// DailyDeps bundles everything daily_job needs: the window to select from,
// the dedup/LLM/delivery stages, and where to write the day's archive.
type DailyDeps struct {
	Articles    repository.ArticleRepository
	LLM         *llm.Client
	Notify      notify.Service
	ArchiveDir  string
	DedupConfig dedup.Config
	Location    *time.Location

	SummarizeBatchSize   int
	SummarizeConcurrency int
	InterBatchPause      time.Duration
}

// summarizeDefaults fills in SummarizeBatchSize/SummarizeConcurrency/
// InterBatchPause when a caller leaves them unset, matching the
// SUMMARIZE_BATCH_SIZE=5 default documented for Stage C.
func (d DailyDeps) summarizeDefaults() (batchSize, concurrency int, pause time.Duration) {
	batchSize, concurrency, pause = d.SummarizeBatchSize, d.SummarizeConcurrency, d.InterBatchPause
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

// DailyResult summarizes one daily_job run.
type DailyResult struct {
	Selected     int
	AfterDedup   int
	AfterRecheck int
	Delivered    int
	Failed       int
	NoStories    bool
	ArchivePath  string
}

// RunDaily implements spec.md §4.5's daily_job: select the prior day's
// strongly-relevant articles, collapse near-duplicates, strictly re-check
// what survives, diversify down to MaxStories, summarize, drop any final
// duplicates the summaries reveal, then deliver and archive.
func RunDaily(ctx context.Context, deps DailyDeps, now time.Time) (DailyResult, error) {
	logger := logging.FromContext(ctx)
	var result DailyResult

	from, to := DailyWindow(now, deps.Location)

	candidates, err := deps.Articles.SelectByWindow(ctx, from, to, repository.WindowFilter{OnlyRelevant: true})
	if err != nil {
		metrics.RecordSchedulerRun("daily", "failure")
		return result, fmt.Errorf("selecting window articles: %w", err)
	}
	result.Selected = len(candidates)

	dedupStart := time.Now()
	survivors := dedup.ProcessPosts(candidates, deps.DedupConfig)
	metrics.RecordDedupBatch(time.Since(dedupStart), len(candidates), len(survivors))
	result.AfterDedup = len(survivors)

	recheckItems := make([]llm.RelevanceItem, len(survivors))
	byPostID := make(map[string]*entity.Article, len(survivors))
	for i, a := range survivors {
		recheckItems[i] = llm.RelevanceItem{PostID: a.PostID, Title: a.Title, Content: a.CombinedText()}
		byPostID[a.PostID] = a
	}
	accepted := deps.LLM.BatchRecheck(ctx, recheckItems)

	rechecked := make([]*entity.Article, 0, len(accepted))
	for _, item := range accepted {
		if a, ok := byPostID[item.PostID]; ok {
			rechecked = append(rechecked, a)
		}
	}
	result.AfterRecheck = len(rechecked)

	top := dedup.SelectTopN(rechecked, MaxStories)

	if len(top) == 0 {
		result.NoStories = true
		if err := deps.Notify.DeliverNoStoriesNotice(ctx); err != nil {
			logger.Warn("no-stories notice failed to deliver", "error", err)
		}
		metrics.RecordSchedulerRun("daily", "success")
		logger.Info("daily_job complete: no stories", "selected", result.Selected)
		return result, nil
	}

	summaryItems := make([]llm.SummaryItem, len(top))
	for i, a := range top {
		summaryItems[i] = llm.SummaryItem{PostID: a.PostID, Title: a.Title, Content: a.Content}
	}
	batchSize, concurrency, pause := deps.summarizeDefaults()
	summaries := deps.LLM.BatchSummarize(ctx, summaryItems, batchSize, concurrency, pause)

	summarized := make([]*entity.Article, 0, len(top))
	for _, a := range top {
		if s, ok := summaries[a.PostID]; ok {
			a.Summary = s
			summarized = append(summarized, a)
		}
	}

	final := dedup.FilterFinalDuplicates(summarized, dedup.FinalTitleThreshold, dedup.FinalContentThreshold)

	items := make([]notify.DigestItem, len(final))
	for i, a := range final {
		items[i] = notify.DigestItem{
			PostID:    a.PostID,
			Title:     a.Title,
			Summary:   a.Summary,
			SourceURL: a.URL,
			Category:  a.Category,
		}
	}

	outcomes := deps.Notify.DeliverDigest(ctx, items)
	for _, o := range outcomes {
		if o.Delivered {
			result.Delivered++
		} else {
			result.Failed++
		}
	}

	if deps.ArchiveDir != "" {
		path, err := WriteDailyDigestArchive(deps.ArchiveDir, now, items)
		if err != nil {
			logger.Warn("failed to write daily digest archive", "error", err)
		} else {
			result.ArchivePath = path
		}
	}

	if updated, err := persistSummaries(ctx, deps.Articles, final); err != nil {
		logger.Warn("failed to persist summaries", "error", err)
	} else {
		logger.Debug("persisted summaries", "count", updated)
	}

	outcome := "success"
	if result.Failed > 0 {
		outcome = "partial"
	}
	metrics.RecordSchedulerRun("daily", outcome)

	logger.Info("daily_job complete",
		"selected", result.Selected, "after_dedup", result.AfterDedup,
		"after_recheck", result.AfterRecheck, "delivered", result.Delivered, "failed", result.Failed)

	return result, nil
}

func persistSummaries(ctx context.Context, repo repository.ArticleRepository, articles []*entity.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}
	summaries := make([]repository.PostSummary, len(articles))
	for i, a := range articles {
		summaries[i] = repository.PostSummary{PostID: a.PostID, Summary: a.Summary}
	}
	return repo.UpdateSummaries(ctx, summaries)
}
