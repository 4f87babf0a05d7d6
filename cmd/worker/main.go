// Package main is the entry point of the PontoCerto background worker.
//
// The worker runs the scheduled jobs without the HTTP API:
//   - end-of-day reminders for staff with an open shift
//   - retention sweep of the notification outbox
//
// Deployments that run several API replicas set SCHEDULER_ENABLED=false on
// the servers and run a single worker instead.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/espacohidro/pontocerto/config"
	"github.com/espacohidro/pontocerto/internal/app"
	"github.com/espacohidro/pontocerto/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration and logging
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.Setup(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
		Attrs: []slog.Attr{
			slog.String("service", "pontocerto-worker"),
			slog.String("env", string(cfg.App.Environment)),
		},
	})
	log.Info("starting PontoCerto worker",
		"version", cfg.App.Version,
		"reminder_interval", cfg.Scheduler.ReminderInterval.String(),
		"retention_schedule", cfg.Scheduler.RetentionSchedule,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Application and scheduler
	// ─────────────────────────────────────────────────────────────────────────
	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := a.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())

	done := make(chan error, 1)
	go func() { done <- sched.Stop() }()

	select {
	case err := <-done:
		if err != nil {
			log.Error("scheduler stop failed", "error", err)
		}
	case <-time.After(cfg.App.ShutdownTimeout):
		return fmt.Errorf("shutdown timed out after %s", cfg.App.ShutdownTimeout)
	}

	st := sched.Status(0)
	log.Info("worker stopped gracefully",
		"executions", st.Totals.TotalExecutions,
		"failures", st.Totals.TotalFailures,
	)
	return nil
}
