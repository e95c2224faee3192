package llm

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const summarizeMaxContentChars = 5_000

// SummaryItem is one unit of Stage C work.
type SummaryItem struct {
	PostID  string
	Title   string
	Content string
}

type summaryResponse struct {
	PostID  string `json:"post_id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

const summarizePromptTemplate = `Проанализируй текст ниже и создай краткое саммари на русском языке.

ПРИМЕР ПРАВИЛЬНОГО ОТВЕТА:
[
{
    "post_id": "%s",
    "title": "Заголовок статьи на русском языке",
    "summary": "Краткое содержание статьи на русском языке. Основные моменты и выводы в 5-7 предложений."
}
]

ИНСТРУКЦИЯ:
1. Создай объект с полями: post_id, title, summary
2. В поле post_id ОБЯЗАТЕЛЬНО скопируй ТОЧНОЕ значение ID из текста ниже
3. Заголовок и саммари должны быть на русском языке
4. Верни ТОЛЬКО JSON массив из одного объекта

ТЕКСТ ДЛЯ АНАЛИЗА:
============================================================
ID: %s
Заголовок: %s
Содержание: %s
============================================================

Создай JSON массив для текста выше:`

// Summarize runs Stage C for a single article: one chat completion, so a
// slow or failing article never blocks the rest of the digest batch. An
// empty string means the item is dropped (parse failure or post_id
// mismatch), per spec.md §4.4.
func (c *Client) Summarize(ctx context.Context, item SummaryItem) string {
	content := item.Content
	if len(content) > summarizeMaxContentChars {
		content = content[:summarizeMaxContentChars]
	}

	prompt := fmt.Sprintf(summarizePromptTemplate, item.PostID, item.PostID, item.Title, content)

	raw, err := c.chat(ctx, stageSummarization, c.Summarization.Model, c.Summarization.Temperature, 1024, prompt)
	if err != nil {
		slog.Warn("summarization failed", slog.String("post_id", item.PostID), slog.String("error", err.Error()))
		return ""
	}

	var parsed []summaryResponse
	if err := extractJSON(raw, &parsed); err != nil {
		var single summaryResponse
		if err2 := extractJSON(raw, &single); err2 == nil && single.Summary != "" {
			parsed = []summaryResponse{single}
		} else {
			slog.Warn("summarization response unparseable", slog.String("post_id", item.PostID), slog.String("error", err.Error()))
			return ""
		}
	}

	if len(parsed) == 0 {
		slog.Warn("summarization returned empty array", slog.String("post_id", item.PostID))
		return ""
	}

	result := parsed[0]
	if result.PostID != item.PostID {
		slog.Warn("summarization post_id mismatch, dropping",
			slog.String("expected", item.PostID), slog.String("got", result.PostID))
		return ""
	}

	return result.Summary
}

// BatchSummarize runs Stage C over items in fixed-size batches, mirroring
// BatchClassify's concurrency-and-pause shape. The top-N digest set is small
// (MaxStories), so batchSize/maxConcurrent stay modest, but the same
// inter-batch pause keeps Stage C from bursting the LLM backend alongside
// the relevance and classification stages.
func (c *Client) BatchSummarize(ctx context.Context, items []SummaryItem, batchSize, maxConcurrent int, interBatchPause time.Duration) map[string]string {
	results := make(map[string]string, len(items))

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
				summary := c.Summarize(ctx, item)
				if summary == "" {
					return
				}
				mu.Lock()
				results[item.PostID] = summary
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
