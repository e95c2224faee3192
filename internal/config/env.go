// Package config loads pipeline configuration from environment variables and
// feed-source/taxonomy files, using the fail-open ConfigLoadResult pattern
// shared across the repository.
package config

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	pkgconfig "reputwatch/internal/pkg/config"
)

// configMetrics exposes this load's outcome (timestamp, per-field fallback
// counts, overall fallback status) under the "reputwatch_config_*" series.
// sync.OnceValue keeps promauto's registration to the process's first Load
// call; every Config test in this package calls Load() repeatedly, and a
// second promauto.New* for the same name panics.
var configMetrics = sync.OnceValue(func() *pkgconfig.ConfigMetrics {
	return pkgconfig.NewConfigMetrics("reputwatch")
})

// Config holds every environment-driven setting the pipeline needs: database
// DSN, LLM backend selection, delivery credentials, concurrency ceilings, and
// scheduling flags.
type Config struct {
	DatabaseDSN string

	SummarizerType string // "openai" or "claude"
	LLMBaseURL     string

	RelevanceModel     string
	ClassificationModel string
	SummarizationModel  string

	RelevanceTemperature     float64
	ClassificationTemperature float64
	SummarizationTemperature  float64

	LLMTimeout     time.Duration
	LLMMaxRetries  int

	RelevanceBatchSize      int
	ClassificationBatchSize int
	SummarizeBatchSize      int
	InterBatchPause         time.Duration

	DeliveryChannel  string // "discord" or "slack"
	DeliveryBotToken string
	DeliveryChatID   string

	FetchConcurrency    int
	FetchSourceTimeout  time.Duration
	FetchDefaultRetries int

	RelevanceConcurrency      int
	ClassificationConcurrency int
	LLMConcurrency            int

	RunOnStartup bool

	SourcesFilePath  string
	TaxonomyFilePath string // empty means use entity.DefaultTaxonomy()

	MetricsAddr string
}

// Load reads Config from the environment using fail-open defaults. Warnings
// from individual field loads are logged but never prevent startup; a
// completely missing/invalid value silently falls back to its documented
// default, matching the teacher's configuration philosophy.
func Load() Config {
	metrics := configMetrics()
	metrics.RecordLoadTimestamp()

	var warnings []string
	collect := func(field string, r pkgconfig.ConfigLoadResult) interface{} {
		if r.FallbackApplied {
			warnings = append(warnings, r.Warnings...)
			metrics.RecordFallback(field, "default")
		}
		return r.Value
	}

	cfg := Config{
		DatabaseDSN: pkgconfig.LoadEnvString("DATABASE_DSN", "postgres://localhost:5432/reputwatch?sslmode=disable"),

		SummarizerType: pkgconfig.LoadEnvString("SUMMARIZER_TYPE", "openai"),
		LLMBaseURL:     pkgconfig.LoadEnvString("LLM_BASE_URL", "https://api.openai.com/v1"),

		RelevanceModel:      pkgconfig.LoadEnvString("RELEVANCE_MODEL", "gpt-4o-mini"),
		ClassificationModel: pkgconfig.LoadEnvString("CLASSIFICATION_MODEL", "gpt-4o-mini"),
		SummarizationModel:  pkgconfig.LoadEnvString("SUMMARIZATION_MODEL", "gpt-4o"),

		DeliveryChannel:  pkgconfig.LoadEnvString("DELIVERY_CHANNEL", "discord"),
		DeliveryBotToken: pkgconfig.LoadEnvString("DELIVERY_BOT_TOKEN", ""),
		DeliveryChatID:   pkgconfig.LoadEnvString("DELIVERY_CHAT_ID", ""),

		SourcesFilePath:  pkgconfig.LoadEnvString("SOURCES_FILE", "config/sources.json"),
		TaxonomyFilePath: pkgconfig.LoadEnvString("TAXONOMY_FILE", ""),

		MetricsAddr: pkgconfig.LoadEnvString("METRICS_ADDR", ":9090"),
	}

	cfg.RelevanceTemperature = loadFloat("RELEVANCE_TEMPERATURE", 0.1, &warnings)
	cfg.ClassificationTemperature = loadFloat("CLASSIFICATION_TEMPERATURE", 0.1, &warnings)
	cfg.SummarizationTemperature = loadFloat("SUMMARIZATION_TEMPERATURE", 0.3, &warnings)

	cfg.LLMTimeout = collect("LLM_TIMEOUT", pkgconfig.LoadEnvDuration("LLM_TIMEOUT", 360*time.Second, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 30*time.Minute)
	})).(time.Duration)
	cfg.LLMMaxRetries = collect("LLM_MAX_RETRIES", pkgconfig.LoadEnvInt("LLM_MAX_RETRIES", 5, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 0, 10)
	})).(int)

	cfg.RelevanceBatchSize = collect("RELEVANCE_BATCH_SIZE", pkgconfig.LoadEnvInt("RELEVANCE_BATCH_SIZE", 10, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 100)
	})).(int)
	cfg.ClassificationBatchSize = collect("CLASSIFICATION_BATCH_SIZE", pkgconfig.LoadEnvInt("CLASSIFICATION_BATCH_SIZE", 5, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 100)
	})).(int)
	cfg.SummarizeBatchSize = collect("SUMMARIZE_BATCH_SIZE", pkgconfig.LoadEnvInt("SUMMARIZE_BATCH_SIZE", 5, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 50)
	})).(int)
	cfg.InterBatchPause = collect("INTER_BATCH_PAUSE", pkgconfig.LoadEnvDuration("INTER_BATCH_PAUSE", 1*time.Second, pkgconfig.ValidatePositiveDuration)).(time.Duration)

	cfg.FetchConcurrency = collect("FETCH_CONCURRENCY", pkgconfig.LoadEnvInt("FETCH_CONCURRENCY", 10, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 64)
	})).(int)
	cfg.FetchSourceTimeout = collect("FETCH_SOURCE_TIMEOUT", pkgconfig.LoadEnvDuration("FETCH_SOURCE_TIMEOUT", 30*time.Second, func(d time.Duration) error {
		return pkgconfig.ValidateDuration(d, time.Second, 5*time.Minute)
	})).(time.Duration)
	cfg.FetchDefaultRetries = collect("FETCH_DEFAULT_RETRIES", pkgconfig.LoadEnvInt("FETCH_DEFAULT_RETRIES", 1, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 5)
	})).(int)
	cfg.LLMConcurrency = collect("LLM_CONCURRENCY", pkgconfig.LoadEnvInt("LLM_CONCURRENCY", 4, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 32)
	})).(int)
	// spec.md §4.4: max_concurrent defaults to 3 for relevance, 2 for
	// classification, distinct from the summarization stage's LLM_CONCURRENCY.
	cfg.RelevanceConcurrency = collect("RELEVANCE_CONCURRENCY", pkgconfig.LoadEnvInt("RELEVANCE_CONCURRENCY", 3, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 32)
	})).(int)
	cfg.ClassificationConcurrency = collect("CLASSIFICATION_CONCURRENCY", pkgconfig.LoadEnvInt("CLASSIFICATION_CONCURRENCY", 2, func(v int) error {
		return pkgconfig.ValidateIntRange(v, 1, 32)
	})).(int)

	cfg.RunOnStartup = collect("RUN_ON_STARTUP", pkgconfig.LoadEnvBool("RUN_ON_STARTUP", false)).(bool)

	metrics.SetFallbackActive("any", len(warnings) > 0)
	for _, w := range warnings {
		slog.Warn("configuration fallback applied", slog.String("detail", w))
	}

	return cfg
}

// loadFloat mirrors the pkgconfig LoadEnv* family for float64, a type the
// shared loader does not cover.
func loadFloat(envKey string, defaultValue float64, warnings *[]string) float64 {
	raw := pkgconfig.LoadEnvString(envKey, "")
	if raw == "" {
		return defaultValue
	}
	var parsed float64
	if _, err := fmt.Sscanf(raw, "%g", &parsed); err != nil || parsed < 0 || parsed > 2 {
		*warnings = append(*warnings, fmt.Sprintf(
			"Invalid %s=%q: expected a float in [0,2], falling back to default %v", envKey, raw, defaultValue))
		return defaultValue
	}
	return parsed
}

// Validate checks that the settings required to reach external services are
// present. Called at startup; a non-nil error is a configuration error
// (spec.md §7) and is fatal.
func (c Config) Validate() error {
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.SummarizerType != "openai" && c.SummarizerType != "claude" {
		return fmt.Errorf("SUMMARIZER_TYPE must be 'openai' or 'claude', got %q", c.SummarizerType)
	}
	if c.DeliveryChannel != "discord" && c.DeliveryChannel != "slack" {
		return fmt.Errorf("DELIVERY_CHANNEL must be 'discord' or 'slack', got %q", c.DeliveryChannel)
	}
	if c.DeliveryBotToken == "" {
		return fmt.Errorf("DELIVERY_BOT_TOKEN is required")
	}
	if c.DeliveryChatID == "" {
		return fmt.Errorf("DELIVERY_CHAT_ID is required")
	}
	return nil
}
