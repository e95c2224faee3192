package llm

import (
	"context"
	"fmt"
	"log/slog"
)

const recheckMaxContentChars = 3_000

// RecheckAcceptThreshold is the implementation-side minimum score for Stage
// D to keep an article, independent of whatever threshold the model itself
// applied to "relevant" (spec.md §4.4).
const RecheckAcceptThreshold = 0.7

const recheckPromptTemplate = `Оцени строго, релевантен ли текст следующим темам:

1. KYC/AML/Compliance
2. Санкции и проверки
3. Репутационные риски
4. Технологии интернет-поиска

ИСКЛЮЧЕНИЯ:
- спорт, шоу-бизнес, развлечения

Ответ в JSON:
{ "relevant": true/false, "score": float, "reason": str }

Заголовок: %s
Текст: %s`

// Recheck runs Stage D for a single article: the same relevance contract
// as Stage A, but a tightened prompt and no exposed subtopic list — meant
// to catch articles that passed the looser Stage A gate by accident.
func (c *Client) Recheck(ctx context.Context, postID, title, content string) RelevanceResult {
	if len(content) > recheckMaxContentChars {
		content = content[:recheckMaxContentChars]
	}

	prompt := fmt.Sprintf(recheckPromptTemplate, title, content)

	raw, err := c.chat(ctx, stageRelevance, c.Relevance.Model, c.Relevance.Temperature, 512, prompt)
	if err != nil {
		slog.Warn("recheck failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return relevanceSentinel
	}

	var parsed relevanceResponse
	if err := extractJSON(raw, &parsed); err != nil {
		slog.Warn("recheck response unparseable", slog.String("post_id", postID), slog.String("error", err.Error()))
		return relevanceSentinel
	}

	return RelevanceResult{Relevant: parsed.Relevant, Score: clamp01(parsed.Score)}
}

// RecheckAccepts reports whether Stage D's result clears the strict
// daily-digest bar: relevant according to the model AND score >= 0.7.
func RecheckAccepts(r RelevanceResult) bool {
	return r.Relevant && r.Score >= RecheckAcceptThreshold
}

// BatchRecheck runs Stage D over a set of items, filtering to only the
// articles that clear RecheckAccepts.
func (c *Client) BatchRecheck(ctx context.Context, items []RelevanceItem) []RelevanceItem {
	accepted := make([]RelevanceItem, 0, len(items))
	for _, item := range items {
		if ctx.Err() != nil {
			return accepted
		}
		if RecheckAccepts(c.Recheck(ctx, item.PostID, item.Title, item.Content)) {
			accepted = append(accepted, item)
		}
	}
	return accepted
}
