// Package llm implements the structured inference orchestrator that sits
// between the article store and the OpenAI-compatible LLM backend: a
// relevance check (Stage A), a taxonomy-constrained classification (Stage
// B), a per-article summarization (Stage C), and a strict daily re-check
// (Stage D). All four stages share one HTTP client, wrapped the way the
// teacher wraps its summarizer calls: retry with backoff around a circuit
// breaker around the raw request.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"reputwatch/internal/resilience/circuitbreaker"
	"reputwatch/internal/resilience/retry"
)

// StageConfig names the model and sampling temperature a single stage uses.
// Populated from internal/config.Config, one per stage.
type StageConfig struct {
	Model       string
	Temperature float32
}

// backend performs the bare chat completion call for one provider. Client
// mirrors the teacher's dual Claude/OpenAI summarizer split, but as one
// interface selected at construction time instead of two parallel structs,
// since all four stages need the same call shape regardless of provider.
type backend interface {
	doChat(ctx context.Context, model string, temperature float32, maxTokens int, prompt string) (string, error)
}

// Client is the shared LLM backend wrapper. It is safe for concurrent use;
// each stage bounds its own concurrency with a semaphore built on top of it.
type Client struct {
	backend backend
	timeout time.Duration
	retry   retry.Config

	relevanceBreaker *circuitbreaker.CircuitBreaker
	classifyBreaker  *circuitbreaker.CircuitBreaker
	summarizeBreaker *circuitbreaker.CircuitBreaker

	Relevance      StageConfig
	Classification StageConfig
	Summarization  StageConfig
}

func newClient(b backend, timeout time.Duration, relevance, classification, summarization StageConfig) *Client {
	slog.Info("initialized llm client",
		slog.String("relevance_model", relevance.Model),
		slog.String("classification_model", classification.Model),
		slog.String("summarization_model", summarization.Model))

	return &Client{
		backend:          b,
		timeout:          timeout,
		retry:            retry.LLMConfig(),
		relevanceBreaker: circuitbreaker.New(circuitbreaker.RelevanceLLMConfig()),
		classifyBreaker:  circuitbreaker.New(circuitbreaker.ClassificationLLMConfig()),
		summarizeBreaker: circuitbreaker.New(circuitbreaker.SummarizationLLMConfig()),
		Relevance:        relevance,
		Classification:   classification,
		Summarization:    summarization,
	}
}

// NewClient builds a Client against an OpenAI-compatible base URL (the
// teacher's go-openai dependency supports arbitrary base URLs via
// openai.ClientConfig, which is how this reaches a self-hosted or proxied
// LLM service rather than api.openai.com).
func NewClient(baseURL, apiKey string, timeout time.Duration, relevance, classification, summarization StageConfig) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return newClient(&openAIBackend{client: openai.NewClientWithConfig(cfg)}, timeout, relevance, classification, summarization)
}

// NewClaudeClient builds a Client against Anthropic's Messages API,
// selected when SUMMARIZER_TYPE=claude. baseURL is honored when non-empty
// so the same environment variable reaches a compatible proxy.
func NewClaudeClient(baseURL, apiKey string, timeout time.Duration, relevance, classification, summarization StageConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return newClient(&claudeBackend{client: anthropic.NewClient(opts...)}, timeout, relevance, classification, summarization)
}

// stage identifies which circuit breaker and log tag a call belongs to.
type stage string

const (
	stageRelevance      stage = "relevance"
	stageClassification stage = "classification"
	stageSummarization  stage = "summarization"
)

func (c *Client) breakerFor(s stage) *circuitbreaker.CircuitBreaker {
	switch s {
	case stageClassification:
		return c.classifyBreaker
	case stageSummarization:
		return c.summarizeBreaker
	default:
		return c.relevanceBreaker
	}
}

// chat issues one /chat/completions call through retry+circuit-breaker and
// returns the raw message content (fences and all). maxTokens of 0 means
// "let the backend default apply".
func (c *Client) chat(ctx context.Context, s stage, model string, temperature float32, maxTokens int, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var result string
	breaker := c.breakerFor(s)

	retryErr := retry.WithBackoff(ctx, c.retry, func() error {
		cbResult, err := breaker.Execute(func() (interface{}, error) {
			return c.backend.doChat(ctx, model, temperature, maxTokens, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("llm circuit breaker open, request rejected",
					slog.String("stage", string(s)),
					slog.String("state", breaker.State().String()))
				return fmt.Errorf("llm backend unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", &TransientError{Stage: string(s), Err: retryErr}
	}
	return result, nil
}

// openAIBackend calls an OpenAI-compatible /chat/completions endpoint.
type openAIBackend struct {
	client *openai.Client
}

// doChat performs the bare API call, translating go-openai's APIError into
// retry.HTTPError so retry.IsRetryable recognizes 5xx/429/408 as retryable.
func (b *openAIBackend) doChat(ctx context.Context, model string, temperature float32, maxTokens int, prompt string) (string, error) {
	start := time.Now()

	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
			slog.Warn("llm request failed",
				slog.Int("status", apiErr.HTTPStatusCode),
				slog.Duration("duration", duration),
				slog.String("error", err.Error()))
			return "", &retry.HTTPError{StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
		}
		slog.Warn("llm request failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm backend returned empty choices")
	}

	slog.Debug("llm request completed",
		slog.String("model", model),
		slog.Duration("duration", duration))

	return resp.Choices[0].Message.Content, nil
}

// claudeBackend calls Anthropic's Messages API directly, for
// SUMMARIZER_TYPE=claude deployments that do not go through an
// OpenAI-compatible proxy.
type claudeBackend struct {
	client anthropic.Client
}

func (b *claudeBackend) doChat(ctx context.Context, model string, temperature float32, maxTokens int, prompt string) (string, error) {
	start := time.Now()

	if maxTokens <= 0 {
		maxTokens = 1024
	}

	// Temperature is intentionally omitted: the teacher's own Claude adapter
	// (internal/infra/summarizer/claude.go) never threads it through either,
	// relying on Anthropic's default sampling.
	message, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.Warn("llm request failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", err
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("llm backend returned empty content")
	}

	textBlock, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("llm backend returned unexpected content type")
	}

	slog.Debug("llm request completed",
		slog.String("model", model),
		slog.Duration("duration", duration))

	return textBlock.Text, nil
}

// extractJSON strips a ```json fenced block (if present) and unmarshals the
// remainder into target. Matches the original service's markdown-stripping
// convention for locally-hosted models that habitually wrap JSON in fences.
func extractJSON(content string, target interface{}) error {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		trimmed = strings.TrimSpace(trimmed)
	}
	if trimmed == "" {
		return fmt.Errorf("empty content after fence stripping")
	}
	return json.Unmarshal([]byte(trimmed), target)
}

// clamp01 restricts a confidence/score value to the closed unit interval.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
