package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/domain/entity"
	"reputwatch/internal/infra/fetcher"
	"reputwatch/internal/llm"
	"reputwatch/internal/repository"
)

// longArticleBody clears llm's sub-50-character relevance short-circuit so
// stage tests actually reach the fake LLM backend.
const longArticleBody = "enough article body text to clear the minimum relevance content length gate"

// stubArticleRepo is a minimal in-memory repository.ArticleRepository used
// to drive hourly/daily job tests without a database, mirroring the
// teacher's stubArticleRepo pattern in internal/usecase/fetch's tests.
type stubArticleRepo struct {
	existing       map[string]bool
	inserted       []*entity.Article
	unchecked      []*entity.Article
	unclassified   []*entity.Article
	byWindow       []*entity.Article
	relevanceCalls map[string]repository.RelevanceUpdate
	classifyCalls  map[string]repository.ClassificationUpdate
	summaries      []repository.PostSummary
	count          int64
}

func newStubArticleRepo() *stubArticleRepo {
	return &stubArticleRepo{existing: map[string]bool{}}
}

func (s *stubArticleRepo) InsertMany(ctx context.Context, candidates []*entity.Article) (int, error) {
	s.inserted = append(s.inserted, candidates...)
	return len(candidates), nil
}

func (s *stubArticleRepo) ExistingURLs(ctx context.Context) (map[string]bool, error) {
	return s.existing, nil
}

func (s *stubArticleRepo) SelectUnchecked(ctx context.Context, limit int) ([]*entity.Article, error) {
	if limit > 0 && limit < len(s.unchecked) {
		return s.unchecked[:limit], nil
	}
	return s.unchecked, nil
}

func (s *stubArticleRepo) SelectRelevantUnclassified(ctx context.Context, limit int) ([]*entity.Article, error) {
	if limit > 0 && limit < len(s.unclassified) {
		return s.unclassified[:limit], nil
	}
	return s.unclassified, nil
}

func (s *stubArticleRepo) SelectByWindow(ctx context.Context, from, to time.Time, filter repository.WindowFilter) ([]*entity.Article, error) {
	return s.byWindow, nil
}

func (s *stubArticleRepo) UpdateRelevanceBatch(ctx context.Context, updates map[string]repository.RelevanceUpdate) (int, error) {
	s.relevanceCalls = updates
	return len(updates), nil
}

func (s *stubArticleRepo) UpdateClassificationBatch(ctx context.Context, updates map[string]repository.ClassificationUpdate) (int, error) {
	s.classifyCalls = updates
	return len(updates), nil
}

func (s *stubArticleRepo) UpdateSummaries(ctx context.Context, summaries []repository.PostSummary) (int, error) {
	s.summaries = summaries
	return len(summaries), nil
}

func (s *stubArticleRepo) DeleteIrrelevant(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubArticleRepo) CountAll(ctx context.Context) (int64, error) {
	return s.count, nil
}

// stubSourceRepo is a minimal repository.SourceRepository for tests that
// only need ListActive.
type stubSourceRepo struct {
	active []*entity.FeedSource
}

func (s *stubSourceRepo) Get(ctx context.Context, id int64) (*entity.FeedSource, error) { return nil, nil }
func (s *stubSourceRepo) List(ctx context.Context) ([]*entity.FeedSource, error)         { return s.active, nil }
func (s *stubSourceRepo) ListActive(ctx context.Context) ([]*entity.FeedSource, error)   { return s.active, nil }
func (s *stubSourceRepo) Upsert(ctx context.Context, source *entity.FeedSource) error    { return nil }
func (s *stubSourceRepo) Delete(ctx context.Context, id int64) error                     { return nil }
func (s *stubSourceRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	return nil
}

// chatCompletionResponse builds a minimal OpenAI-shaped response body,
// mirroring internal/llm's own test helper of the same name.
func chatCompletionResponse(content string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{{
			"message": map[string]string{"role": "assistant", "content": content},
		}},
	})
	return string(body)
}

func newTestLLMClient(t *testing.T, handler http.HandlerFunc) (*llm.Client, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	c := llm.NewClient(server.URL, "test-key", 5*time.Second,
		llm.StageConfig{Model: "relevance-model"},
		llm.StageConfig{Model: "classify-model"},
		llm.StageConfig{Model: "summarize-model"})
	return c, server.Close
}

func TestRunRelevanceStage_PersistsVerdicts(t *testing.T) {
	client, closeFn := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(`{"relevant": true, "score": 0.9}`)))
	})
	defer closeFn()

	repo := newStubArticleRepo()
	repo.unchecked = []*entity.Article{{PostID: "p1", Title: "t", Content: longArticleBody}}

	deps := HourlyDeps{
		Articles: repo,
		LLM:      client,
		BatchSizes: BatchSizes{RelevanceBatchSize: 10, RelevanceConcurrency: 2},
	}

	updated, err := RunRelevanceStage(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, repository.RelevanceUpdate{Relevant: true, Score: 0.9}, repo.relevanceCalls["p1"])
}

func TestRunRelevanceStage_NoPendingArticlesIsNoop(t *testing.T) {
	repo := newStubArticleRepo()
	deps := HourlyDeps{Articles: repo, BatchSizes: BatchSizes{RelevanceBatchSize: 10, RelevanceConcurrency: 2}}

	updated, err := RunRelevanceStage(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestRunClassificationStage_RejectsUnknownCategory(t *testing.T) {
	client, closeFn := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(`{"category": "Not A Real Category", "subcategory": "", "confidence": 0.9}`)))
	})
	defer closeFn()

	repo := newStubArticleRepo()
	repo.unclassified = []*entity.Article{{PostID: "p1", Title: "t", Content: "c"}}

	deps := HourlyDeps{
		Articles:   repo,
		LLM:        client,
		Taxonomy:   entity.DefaultTaxonomy(),
		BatchSizes: BatchSizes{ClassificationBatchSize: 5, ClassificationConcurrency: 2},
	}

	updated, err := RunClassificationStage(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
	assert.Empty(t, repo.classifyCalls)
}

func TestRunClassificationStage_PersistsKnownCategory(t *testing.T) {
	client, closeFn := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(`{"category": "Технологии", "subcategory": "IT и софтвер", "confidence": 0.8}`)))
	})
	defer closeFn()

	repo := newStubArticleRepo()
	repo.unclassified = []*entity.Article{{PostID: "p1", Title: "t", Content: "c"}}

	deps := HourlyDeps{
		Articles:   repo,
		LLM:        client,
		Taxonomy:   entity.DefaultTaxonomy(),
		BatchSizes: BatchSizes{ClassificationBatchSize: 5, ClassificationConcurrency: 2},
	}

	updated, err := RunClassificationStage(context.Background(), deps, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "Технологии", repo.classifyCalls["p1"].Category)
}

func TestRunHourly_InsertsOnlyNewURLs(t *testing.T) {
	client, closeFn := newTestLLMClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(`{"relevant": false, "score": 0.1}`)))
	})
	defer closeFn()

	repo := newStubArticleRepo()
	repo.existing["https://example.com/old"] = true

	now := time.Now().UTC()
	published := now.Add(-time.Hour)
	parser := &fakeFeedParser{feeds: map[string]*gofeed.Feed{
		"https://example.com/feed": {
			Items: []*gofeed.Item{
				{Title: "old", Link: "https://example.com/old", Description: "old body", PublishedParsed: &published},
				{Title: "new", Link: "https://example.com/new", Description: "new body", PublishedParsed: &published},
			},
		},
	}}
	fetch := fetcher.New(parser, nil, fetcher.Options{Concurrency: 2, SourceTimeout: time.Second, DefaultRetries: 1})

	reportDir := t.TempDir()
	deps := HourlyDeps{
		Fetcher:         fetch,
		Articles:        repo,
		Sources:         &stubSourceRepo{active: []*entity.FeedSource{{ID: 1, Name: "s1", URL: "https://example.com/feed", Priority: entity.PriorityHigh, Active: true}}},
		LLM:             client,
		Taxonomy:        entity.DefaultTaxonomy(),
		HealthReportDir: reportDir,
	}

	result, err := RunHourly(context.Background(), deps, now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, repo.inserted, 1)
	assert.Equal(t, "https://example.com/new", repo.inserted[0].URL)

	jsonReport, err := os.ReadFile(filepath.Join(reportDir, "feed_health.json"))
	require.NoError(t, err)
	assert.Contains(t, string(jsonReport), `"source_id": 1`)
}

// fakeFeedParser implements fetcher.FeedParser, returning a fixed feed per
// URL, for hourly_job's fetch step.
type fakeFeedParser struct {
	feeds map[string]*gofeed.Feed
}

func (f *fakeFeedParser) ParseURLWithContext(_ context.Context, feedURL string) (*gofeed.Feed, error) {
	return f.feeds[feedURL], nil
}
