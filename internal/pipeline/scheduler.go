package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"reputwatch/internal/infra/worker"
	"reputwatch/internal/observability/logging"
	pkgconfig "reputwatch/internal/pkg/config"
)

// hourlySchedule runs hourly_job at the top of every hour. dailySchedule
// runs daily_job at 09:00 in Location, matching the fixed window boundary
// computed by DailyWindow.
const (
	hourlySchedule = "0 * * * *"
	dailySchedule  = "0 9 * * *"
)

// Scheduler drives hourly_job and daily_job on their fixed cron schedules,
// in MSK, and exposes liveness/readiness over HTTP while running.
type Scheduler struct {
	hourlyDeps HourlyDeps
	dailyDeps  DailyDeps
	location   *time.Location
	logger     *slog.Logger
	health     *worker.HealthServer
}

// NewScheduler builds a Scheduler. healthAddr is passed straight to
// worker.HealthServer; an empty string disables the health endpoint.
func NewScheduler(hourlyDeps HourlyDeps, dailyDeps DailyDeps, logger *slog.Logger, healthAddr string) *Scheduler {
	var health *worker.HealthServer
	if healthAddr != "" {
		health = worker.NewHealthServer(healthAddr, logger)
	}
	return &Scheduler{
		hourlyDeps: hourlyDeps,
		dailyDeps:  dailyDeps,
		location:   MustMoscowLocation(),
		logger:     logger,
		health:     health,
	}
}

// Run starts the cron scheduler and blocks until ctx is cancelled. If
// runOnStartup is set, hourly_job fires once immediately before the cron
// schedule takes over, matching the teacher's startup-crawl convenience.
func (s *Scheduler) Run(ctx context.Context, runOnStartup bool) error {
	if s.health != nil {
		go func() {
			if err := s.health.Start(ctx); err != nil {
				s.logger.Error("health server stopped", slog.Any("error", err))
			}
		}()
	}

	// The two schedules are fixed constants, but spec.md §4.5's fixed trigger
	// times are exactly what an operator could break with a careless edit;
	// validate them the same way a configurable cron field would be, rather
	// than only discovering a typo from cron.AddFunc's generic parse error.
	if err := pkgconfig.ValidateCronSchedule(hourlySchedule); err != nil {
		return fmt.Errorf("hourly_job schedule: %w", err)
	}
	if err := pkgconfig.ValidateCronSchedule(dailySchedule); err != nil {
		return fmt.Errorf("daily_job schedule: %w", err)
	}

	c := cron.New(cron.WithLocation(s.location))

	if _, err := c.AddFunc(hourlySchedule, func() { s.runHourlyJob(ctx) }); err != nil {
		return fmt.Errorf("scheduling hourly_job: %w", err)
	}
	if _, err := c.AddFunc(dailySchedule, func() { s.runDailyJob(ctx) }); err != nil {
		return fmt.Errorf("scheduling daily_job: %w", err)
	}

	if runOnStartup {
		s.runHourlyJob(ctx)
	}

	c.Start()
	defer c.Stop()

	if s.health != nil {
		s.health.SetReady(true)
	}
	s.logger.Info("scheduler started",
		slog.String("hourly_schedule", hourlySchedule),
		slog.String("daily_schedule", dailySchedule),
		slog.String("location", s.location.String()))

	<-ctx.Done()
	s.logger.Info("scheduler shutting down")
	return nil
}

func (s *Scheduler) runHourlyJob(ctx context.Context) {
	runID := logging.NewRequestID()
	ctx = logging.ContextWithRequestID(ctx, runID)
	logger := logging.WithRequestID(ctx, s.logger)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("hourly_job starting")
	if _, err := RunHourly(ctx, s.hourlyDeps, time.Now()); err != nil {
		logger.Error("hourly_job failed", slog.Any("error", err))
	}
}

func (s *Scheduler) runDailyJob(ctx context.Context) {
	runID := logging.NewRequestID()
	ctx = logging.ContextWithRequestID(ctx, runID)
	logger := logging.WithRequestID(ctx, s.logger)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info("daily_job starting")
	if _, err := RunDaily(ctx, s.dailyDeps, time.Now()); err != nil {
		logger.Error("daily_job failed", slog.Any("error", err))
	}
}
