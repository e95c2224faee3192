package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArticle_IsStronglyRelevant(t *testing.T) {
	tests := []struct {
		name      string
		relevance Relevance
		score     float64
		want      bool
	}{
		{"unknown relevance", RelevanceUnknown, 0.9, false},
		{"false relevance high score", RelevanceFalse, 0.95, false},
		{"true relevance below threshold", RelevanceTrue, 0.69, false},
		{"true relevance at threshold", RelevanceTrue, 0.7, true},
		{"true relevance above threshold", RelevanceTrue, 0.86, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{Relevance: tt.relevance, RelevanceScore: tt.score}
			assert.Equal(t, tt.want, a.IsStronglyRelevant())
		})
	}
}

func TestArticle_IsClassified(t *testing.T) {
	a := Article{}
	assert.False(t, a.IsClassified())

	a.Category = "Финансовое регулирование и комплаенс"
	assert.True(t, a.IsClassified())
}

func TestArticle_IsSummarized(t *testing.T) {
	a := Article{}
	assert.False(t, a.IsSummarized())

	a.Summary = "summary text"
	assert.True(t, a.IsSummarized())
}

func TestArticle_CombinedText(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{"both set", "Title", "Content", "Title Content"},
		{"empty title", "", "Content", "Content"},
		{"empty content", "Title", "", "Title"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{Title: tt.title, Content: tt.content}
			assert.Equal(t, tt.want, a.CombinedText())
		})
	}
}
