package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reputwatch/internal/pipeline"
)

// Exit codes per spec.md §6: 0 success, 1 a configuration or connectivity
// error prevented the run from producing data, 2 the run produced data but
// part of it failed (a partial failure).
const (
	exitSuccess        = 0
	exitConfigOrConn   = 1
	exitPartialFailure = 2
)

func main() {
	root := &cobra.Command{
		Use:   "reputwatch",
		Short: "Reputation-monitoring news pipeline: fetch, classify, summarize, and deliver a daily digest",
	}

	root.AddCommand(
		newRunFullPipelineCmd(),
		newSchedulerCmd(),
		newRelevanceCmd(),
		newClassifyCmd(),
		newDigestCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(exitConfigOrConn)
	}
}

func newRunFullPipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-full-pipeline",
		Short: "Run one hourly cycle followed by one daily cycle, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				exitWith(exitConfigOrConn, "startup failed", err)
			}
			defer a.Close()

			ctx := cmd.Context()
			now := time.Now()

			hourlyResult, err := pipeline.RunHourly(ctx, a.hourlyDeps(), now)
			if err != nil {
				exitWith(exitConfigOrConn, "hourly_job failed", err)
			}

			dailyResult, err := pipeline.RunDaily(ctx, a.dailyDeps(), now)
			if err != nil {
				exitWith(exitConfigOrConn, "daily_job failed", err)
			}

			if hourlyResult.FetchErr != nil || dailyResult.Failed > 0 {
				a.logger.Warn("run-full-pipeline completed with partial failures",
					slog.Any("fetch_error", hourlyResult.FetchErr),
					slog.Int("delivery_failures", dailyResult.Failed))
				os.Exit(exitPartialFailure)
			}
			return nil
		},
	}
}

func newSchedulerCmd() *cobra.Command {
	var healthAddr string
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run the long-lived scheduler: hourly_job every hour, daily_job at 09:00 MSK",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				exitWith(exitConfigOrConn, "startup failed", err)
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := pipeline.NewScheduler(a.hourlyDeps(), a.dailyDeps(), a.logger, healthAddr)
			return sched.Run(ctx, a.cfg.RunOnStartup)
		},
	}
	cmd.Flags().StringVar(&healthAddr, "health-addr", ":9091", "address for the liveness/readiness HTTP server")
	return cmd
}

func newRelevanceCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "relevance",
		Short: "Run Stage A (relevance check) once over unchecked articles and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				exitWith(exitConfigOrConn, "startup failed", err)
			}
			defer a.Close()

			updated, err := pipeline.RunRelevanceStage(cmd.Context(), a.hourlyDeps(), limit)
			if err != nil {
				exitWith(exitConfigOrConn, "relevance stage failed", err)
			}
			fmt.Printf("relevance: checked and persisted %d articles\n", updated)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of articles to check (0 means unbounded)")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Run Stage B (classification) once over relevant-but-unclassified articles and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				exitWith(exitConfigOrConn, "startup failed", err)
			}
			defer a.Close()

			updated, err := pipeline.RunClassificationStage(cmd.Context(), a.hourlyDeps(), limit)
			if err != nil {
				exitWith(exitConfigOrConn, "classification stage failed", err)
			}
			fmt.Printf("classify: classified and persisted %d articles\n", updated)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of articles to classify (0 means unbounded)")
	return cmd
}

func newDigestCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Run the daily digest selection pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !dryRun {
				return fmt.Errorf("digest currently only supports --dry-run; use run-full-pipeline or scheduler for live delivery")
			}

			a, err := newApp()
			if err != nil {
				exitWith(exitConfigOrConn, "startup failed", err)
			}
			defer a.Close()

			deps := a.dailyDeps()
			deps.Notify = dryRunNotifier{}
			deps.ArchiveDir = ""

			result, err := pipeline.RunDaily(cmd.Context(), deps, time.Now())
			if err != nil {
				exitWith(exitConfigOrConn, "digest dry-run failed", err)
			}

			if result.NoStories {
				fmt.Println("digest --dry-run: no stories cleared the daily bar")
				return nil
			}
			fmt.Printf("digest --dry-run: selected=%d after_dedup=%d after_recheck=%d would_deliver=%d\n",
				result.Selected, result.AfterDedup, result.AfterRecheck, result.Delivered)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of delivering it")
	return cmd
}

// exitWith logs err and terminates with code, matching spec.md §6's exit
// code contract for configuration/connectivity failures.
func exitWith(code int, msg string, err error) {
	slog.Error(msg, slog.Any("error", err))
	os.Exit(code)
}
