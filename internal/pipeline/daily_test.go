package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/dedup"
	"reputwatch/internal/domain/entity"
	"reputwatch/internal/usecase/notify"
)

// stubNotifier is a notify.Service-shaped test double recording what it
// was asked to deliver, mirroring the teacher's stub-type test convention.
type stubNotifier struct {
	delivered []notify.DigestItem
	outcomes  []notify.DeliveryOutcome
	noStories bool
}

func (s *stubNotifier) DeliverDigest(ctx context.Context, items []notify.DigestItem) []notify.DeliveryOutcome {
	s.delivered = items
	return s.outcomes
}

func (s *stubNotifier) DeliverNoStoriesNotice(ctx context.Context) error {
	s.noStories = true
	return nil
}

func (s *stubNotifier) GetChannelHealth() []notify.ChannelHealthStatus { return nil }

// llmResponseRouter dispatches an httptest handler by the "model" field of
// the incoming chat completion request, since RunDaily drives both the
// relevance-shaped recheck stage and the summarize stage through one client.
func llmResponseRouter(byModel map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(byModel[req.Model])))
	}
}

func TestRunDaily_NoStoriesClearingRecheckBarSendsNotice(t *testing.T) {
	client, closeFn := newTestLLMClient(t, llmResponseRouter(map[string]string{
		"relevance-model": `{"relevant": false, "score": 0.1}`,
	}))
	defer closeFn()

	repo := newStubArticleRepo()
	repo.byWindow = []*entity.Article{
		{PostID: "p1", Title: "story", Content: "body", Relevance: entity.RelevanceTrue, RelevanceScore: 0.9},
	}
	notifier := &stubNotifier{}

	deps := DailyDeps{
		Articles:    repo,
		LLM:         client,
		Notify:      notifier,
		DedupConfig: dedup.DefaultConfig(),
		Location:    MustMoscowLocation(),
	}

	result, err := RunDaily(context.Background(), deps, time.Now())
	require.NoError(t, err)
	assert.True(t, result.NoStories)
	assert.True(t, notifier.noStories)
	assert.Empty(t, notifier.delivered)
}

func TestRunDaily_DeliversAndArchivesSurvivingStory(t *testing.T) {
	client, closeFn := newTestLLMClient(t, llmResponseRouter(map[string]string{
		"relevance-model": `{"relevant": true, "score": 0.95}`,
		"summarize-model": `[{"post_id": "p1", "title": "story", "summary": "a concise summary"}]`,
	}))
	defer closeFn()

	repo := newStubArticleRepo()
	repo.byWindow = []*entity.Article{
		{PostID: "p1", Title: "story", Content: "body", URL: "https://example.com/p1",
			Relevance: entity.RelevanceTrue, RelevanceScore: 0.9},
	}
	notifier := &stubNotifier{outcomes: []notify.DeliveryOutcome{{Channel: "discord", PostID: "p1", Delivered: true}}}

	archiveDir := t.TempDir()
	deps := DailyDeps{
		Articles:    repo,
		LLM:         client,
		Notify:      notifier,
		ArchiveDir:  archiveDir,
		DedupConfig: dedup.DefaultConfig(),
		Location:    MustMoscowLocation(),
	}

	now := time.Now()
	result, err := RunDaily(context.Background(), deps, now)
	require.NoError(t, err)
	assert.False(t, result.NoStories)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, notifier.delivered, 1)
	assert.Equal(t, "a concise summary", notifier.delivered[0].Summary)
	require.NotEmpty(t, result.ArchivePath)

	content, err := os.ReadFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "a concise summary")

	require.Len(t, repo.summaries, 1)
	assert.Equal(t, "p1", repo.summaries[0].PostID)
}

func TestRunDaily_ArchivesDeliveryFailuresToo(t *testing.T) {
	client, closeFn := newTestLLMClient(t, llmResponseRouter(map[string]string{
		"relevance-model": `{"relevant": true, "score": 0.95}`,
		"summarize-model": `[{"post_id": "p1", "title": "story", "summary": "a summary"}]`,
	}))
	defer closeFn()

	repo := newStubArticleRepo()
	repo.byWindow = []*entity.Article{
		{PostID: "p1", Title: "story", Content: "body", URL: "https://example.com/p1",
			Relevance: entity.RelevanceTrue, RelevanceScore: 0.9},
	}
	notifier := &stubNotifier{outcomes: []notify.DeliveryOutcome{{Channel: "discord", PostID: "p1", Delivered: false}}}

	archiveDir := t.TempDir()
	deps := DailyDeps{
		Articles:    repo,
		LLM:         client,
		Notify:      notifier,
		ArchiveDir:  archiveDir,
		DedupConfig: dedup.DefaultConfig(),
		Location:    MustMoscowLocation(),
	}

	result, err := RunDaily(context.Background(), deps, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Delivered)
	assert.Equal(t, 1, result.Failed)
	require.NotEmpty(t, result.ArchivePath)

	content, err := os.ReadFile(result.ArchivePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "a summary")
}

func TestRunDaily_RecheckRejectionDropsBelowThreshold(t *testing.T) {
	client, closeFn := newTestLLMClient(t, llmResponseRouter(map[string]string{
		"relevance-model": `{"relevant": true, "score": 0.5}`,
	}))
	defer closeFn()

	repo := newStubArticleRepo()
	repo.byWindow = []*entity.Article{
		{PostID: "p1", Title: "story", Content: "body", Relevance: entity.RelevanceTrue, RelevanceScore: 0.9},
	}
	notifier := &stubNotifier{}

	deps := DailyDeps{
		Articles:    repo,
		LLM:         client,
		Notify:      notifier,
		DedupConfig: dedup.DefaultConfig(),
		Location:    MustMoscowLocation(),
	}

	result, err := RunDaily(context.Background(), deps, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.AfterDedup)
	assert.Equal(t, 0, result.AfterRecheck)
	assert.True(t, result.NoStories)
}
