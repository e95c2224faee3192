package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"reputwatch/internal/domain/entity"
)

const classifyMaxContentChars = 100_000

// ClassificationResult is the per-article outcome of Stage B.
type ClassificationResult struct {
	Category    string
	Subcategory string
	Confidence  float64
}

var classificationSentinel = ClassificationResult{}

type classificationResponse struct {
	Category    string  `json:"category"`
	Subcategory string  `json:"subcategory"`
	Confidence  float64 `json:"confidence"`
}

const classifyPromptTemplate = `Ты классифицируешь новостные статьи по строго заданной схеме.

У тебя есть список категорий и их подкатегорий:

%s

Твоя задача — выбрать наиболее подходящую категорию и подкатегорию для предложенной статьи, а также оценить степень уверенности (от 0.0 до 1.0).

Обязательно соблюдай следующие правила:
- Выбирай только из предложенных категорий и подкатегорий.
- Не выдумывай свои категории.
- Если подкатегория не подходит, но категория подходит — подкатегорию можно оставить пустой.
- Ответ должен быть строго в формате JSON:
{
    "category": "Категория",
    "subcategory": "Подкатегория",
    "confidence": 0.87
}

Вот текст статьи:

Заголовок: %s

Содержание: %s`

func formatTaxonomy(t entity.Taxonomy) string {
	var b strings.Builder
	for _, cat := range t.Categories() {
		fmt.Fprintf(&b, "%s: %s\n", cat, strings.Join(t[cat], ", "))
	}
	return b.String()
}

// Classify runs Stage B for a single article against taxonomy. Output is
// validated against the taxonomy (I4): an unknown category is rejected
// wholesale, an unknown subcategory is blanked but the category kept.
func (c *Client) Classify(ctx context.Context, postID, title, content string, taxonomy entity.Taxonomy) ClassificationResult {
	if len(content) > classifyMaxContentChars {
		content = content[:classifyMaxContentChars]
	}

	prompt := fmt.Sprintf(classifyPromptTemplate, formatTaxonomy(taxonomy), title, content)

	raw, err := c.chat(ctx, stageClassification, c.Classification.Model, c.Classification.Temperature, 256, prompt)
	if err != nil {
		slog.Warn("classification failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return classificationSentinel
	}

	var parsed classificationResponse
	if err := extractJSON(raw, &parsed); err != nil {
		slog.Warn("classification response unparseable", slog.String("post_id", postID), slog.String("error", err.Error()))
		return classificationSentinel
	}

	category := strings.TrimSpace(parsed.Category)
	subcategory := strings.TrimSpace(parsed.Subcategory)
	confidence := clamp01(parsed.Confidence)

	if !taxonomy.Contains(category, "") {
		slog.Warn("classification returned unknown category", slog.String("post_id", postID), slog.String("category", category))
		return classificationSentinel
	}
	if subcategory != "" && !taxonomy.Contains(category, subcategory) {
		slog.Warn("classification returned unknown subcategory, blanking",
			slog.String("post_id", postID), slog.String("category", category), slog.String("subcategory", subcategory))
		subcategory = ""
	}

	return ClassificationResult{Category: category, Subcategory: subcategory, Confidence: confidence}
}

// ClassificationItem is one unit of Stage B work.
type ClassificationItem struct {
	PostID  string
	Title   string
	Content string
}

// BatchClassify runs Stage B over items in fixed-size batches, mirroring
// BatchCheckRelevance's concurrency-and-pause shape with Stage B's lower
// defaults (batch 5, concurrency 2).
func (c *Client) BatchClassify(ctx context.Context, items []ClassificationItem, taxonomy entity.Taxonomy, batchSize, maxConcurrent int, interBatchPause time.Duration) map[string]ClassificationResult {
	results := make(map[string]ClassificationResult, len(items))

	for start := 0; start < len(items); start += batchSize {
		end := start + batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		sem := make(chan struct{}, maxConcurrent)
		var mu sync.Mutex
		var wg sync.WaitGroup

		for _, item := range batch {
			item := item
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				res := c.Classify(ctx, item.PostID, item.Title, item.Content, taxonomy)
				mu.Lock()
				results[item.PostID] = res
				mu.Unlock()
			}()
		}
		wg.Wait()

		if end < len(items) {
			select {
			case <-time.After(interBatchPause):
			case <-ctx.Done():
				return results
			}
		}
	}

	return results
}
