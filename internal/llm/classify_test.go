package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/domain/entity"
)

func testTaxonomy() entity.Taxonomy {
	return entity.DefaultTaxonomy()
}

func TestClassify_AcceptsValidCategoryAndSubcategory(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(
			`{"category": "Технологии", "subcategory": "Кибербезопасность", "confidence": 0.9}`)))
	})
	defer closeFn()

	result := c.Classify(context.Background(), "p1", "t", "c", testTaxonomy())
	assert.Equal(t, "Технологии", result.Category)
	assert.Equal(t, "Кибербезопасность", result.Subcategory)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestClassify_RejectsUnknownCategory(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(
			`{"category": "Прочее", "subcategory": "", "confidence": 0.5}`)))
	})
	defer closeFn()

	result := c.Classify(context.Background(), "p1", "t", "c", testTaxonomy())
	require.Equal(t, classificationSentinel, result)
}

func TestClassify_BlanksUnknownSubcategoryButKeepsCategory(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(
			`{"category": "Технологии", "subcategory": "Не существует", "confidence": 0.7}`)))
	})
	defer closeFn()

	result := c.Classify(context.Background(), "p1", "t", "c", testTaxonomy())
	assert.Equal(t, "Технологии", result.Category)
	assert.Empty(t, result.Subcategory)
}

func TestBatchClassify_CoversAllItems(t *testing.T) {
	c, closeFn := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(chatCompletionResponse(
			`{"category": "Экономика", "subcategory": "", "confidence": 0.6}`)))
	})
	defer closeFn()

	items := []ClassificationItem{
		{PostID: "a", Title: "x", Content: "y"},
		{PostID: "b", Title: "x", Content: "y"},
	}
	results := c.BatchClassify(context.Background(), items, testTaxonomy(), 5, 2, 1*time.Millisecond)
	assert.Len(t, results, 2)
}
