package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClaudeClient_UsesClaudeBackend(t *testing.T) {
	c := NewClaudeClient("https://example.invalid", "test-key", 5*time.Second,
		StageConfig{Model: "claude-relevance", Temperature: 0.1},
		StageConfig{Model: "claude-classify", Temperature: 0.1},
		StageConfig{Model: "claude-summarize", Temperature: 0.3})

	require.NotNil(t, c)
	_, ok := c.backend.(*claudeBackend)
	assert.True(t, ok)
	assert.Equal(t, "claude-relevance", c.Relevance.Model)
}
