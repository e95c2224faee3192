// Package main is the reputwatch CLI entrypoint: a cobra command tree
// wrapping the pipeline package's hourly/daily jobs and the scheduler that
// drives them, plus one-shot stage runners and a dry-run digest preview.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"reputwatch/internal/config"
	"reputwatch/internal/dedup"
	"reputwatch/internal/domain/entity"
	"reputwatch/internal/infra/db"
	"reputwatch/internal/infra/fetcher"
	"reputwatch/internal/infra/notifier"
	pgRepo "reputwatch/internal/infra/persistence/postgres"
	"reputwatch/internal/llm"
	"reputwatch/internal/observability/logging"
	"reputwatch/internal/pipeline"
	"reputwatch/internal/repository"
	"reputwatch/internal/usecase/notify"
)

// app bundles every constructed dependency a subcommand might need. Built
// once per subcommand invocation by newApp.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	database *sql.DB

	articles repository.ArticleRepository
	sources  repository.SourceRepository
	llmClient *llm.Client
	fetcher  *fetcher.Fetcher
	notify   notify.Service
	taxonomy entity.Taxonomy
}

// newApp loads configuration, opens the database, and constructs every
// service the pipeline needs. Mirrors the teacher's cmd/worker/main.go
// wiring sequence (logger, database, notifier channels, then the crawl
// service), generalized to the four-stage LLM pipeline.
func newApp() (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := db.Open()

	sourceRepo := pgRepo.NewSourceRepo(database)
	feedSources, err := config.LoadSources(cfg.SourcesFilePath)
	if err != nil {
		return nil, fmt.Errorf("loading feed sources: %w", err)
	}
	for i := range feedSources {
		if err := sourceRepo.Upsert(context.Background(), &feedSources[i]); err != nil {
			return nil, fmt.Errorf("reconciling feed source %s: %w", feedSources[i].Name, err)
		}
	}

	taxonomy, err := loadTaxonomy(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading taxonomy: %w", err)
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("constructing llm client: %w", err)
	}

	channels := buildNotifyChannels(cfg, logger)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		database: database,
		articles: pgRepo.NewArticleRepo(database),
		sources:  sourceRepo,
		llmClient: llmClient,
		fetcher: fetcher.New(nil, nil, fetcher.Options{
			Concurrency:    cfg.FetchConcurrency,
			SourceTimeout:  cfg.FetchSourceTimeout,
			DefaultRetries: cfg.FetchDefaultRetries,
		}),
		notify:   notify.NewService(channels),
		taxonomy: taxonomy,
	}
	return a, nil
}

func (a *app) Close() {
	if err := a.database.Close(); err != nil {
		a.logger.Error("failed to close database", slog.Any("error", err))
	}
}

func loadTaxonomy(cfg config.Config) (entity.Taxonomy, error) {
	if cfg.TaxonomyFilePath == "" {
		return entity.DefaultTaxonomy(), nil
	}
	return config.LoadTaxonomy(cfg.TaxonomyFilePath)
}

// newLLMClient selects the OpenAI-compatible or Claude backend per
// SUMMARIZER_TYPE, reading the API key directly from the environment the
// way the teacher's own summarizer construction does, rather than
// threading a secret through internal/config.Config.
func newLLMClient(cfg config.Config) (*llm.Client, error) {
	relevance := llm.StageConfig{Model: cfg.RelevanceModel, Temperature: float32(cfg.RelevanceTemperature)}
	classification := llm.StageConfig{Model: cfg.ClassificationModel, Temperature: float32(cfg.ClassificationTemperature)}
	summarization := llm.StageConfig{Model: cfg.SummarizationModel, Temperature: float32(cfg.SummarizationTemperature)}

	switch cfg.SummarizerType {
	case "claude":
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required when SUMMARIZER_TYPE=claude")
		}
		return llm.NewClaudeClient(cfg.LLMBaseURL, apiKey, cfg.LLMTimeout, relevance, classification, summarization), nil
	default:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required when SUMMARIZER_TYPE=openai")
		}
		return llm.NewClient(cfg.LLMBaseURL, apiKey, cfg.LLMTimeout, relevance, classification, summarization), nil
	}
}

// buildNotifyChannels constructs the Discord or Slack channel selected by
// DELIVERY_CHANNEL. DeliveryBotToken carries the webhook URL (the
// credential format a Discord/Slack incoming webhook actually uses), kept
// under its spec-facing name since both delivery backends treat "the
// secret that authenticates this endpoint" the same way.
func buildNotifyChannels(cfg config.Config, logger *slog.Logger) []notify.Channel {
	switch cfg.DeliveryChannel {
	case "slack":
		ch := notify.NewSlackChannel(notifier.SlackConfig{
			Enabled:    cfg.DeliveryBotToken != "",
			WebhookURL: cfg.DeliveryBotToken,
			Timeout:    30 * time.Second,
		})
		logger.Info("slack delivery channel configured", slog.Bool("enabled", ch.IsEnabled()))
		return []notify.Channel{ch}
	default:
		ch := notify.NewDiscordChannel(notifier.DiscordConfig{
			Enabled:    cfg.DeliveryBotToken != "",
			WebhookURL: cfg.DeliveryBotToken,
			Timeout:    30 * time.Second,
		})
		logger.Info("discord delivery channel configured", slog.Bool("enabled", ch.IsEnabled()))
		return []notify.Channel{ch}
	}
}

func (a *app) hourlyDeps() pipeline.HourlyDeps {
	return pipeline.HourlyDeps{
		Fetcher:         a.fetcher,
		Articles:        a.articles,
		Sources:         a.sources,
		LLM:             a.llmClient,
		Taxonomy:        a.taxonomy,
		HealthReportDir: "logs",
		BatchSizes: pipeline.BatchSizes{
			RelevanceBatchSize:        a.cfg.RelevanceBatchSize,
			RelevanceConcurrency:      a.cfg.RelevanceConcurrency,
			ClassificationBatchSize:   a.cfg.ClassificationBatchSize,
			ClassificationConcurrency: a.cfg.ClassificationConcurrency,
			InterBatchPause:           a.cfg.InterBatchPause,
		},
	}
}

func (a *app) dailyDeps() pipeline.DailyDeps {
	return pipeline.DailyDeps{
		Articles:             a.articles,
		LLM:                  a.llmClient,
		Notify:               a.notify,
		ArchiveDir:           "logs/digests",
		DedupConfig:          dedup.DefaultConfig(),
		Location:             pipeline.MustMoscowLocation(),
		SummarizeBatchSize:   a.cfg.SummarizeBatchSize,
		SummarizeConcurrency: a.cfg.LLMConcurrency,
		InterBatchPause:      a.cfg.InterBatchPause,
	}
}
