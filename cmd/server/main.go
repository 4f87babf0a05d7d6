// Package main is the entry point of the PontoCerto API server.
//
// The server exposes the punch clock, staff management, reports and backups
// over HTTP and, unless disabled, runs the background jobs in-process.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/espacohidro/pontocerto/config"
	"github.com/espacohidro/pontocerto/internal/app"
	httpserver "github.com/espacohidro/pontocerto/internal/interface/http"
	"github.com/espacohidro/pontocerto/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
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
			slog.String("service", "pontocerto-server"),
			slog.String("env", string(cfg.App.Environment)),
		},
	})
	log.Info("starting PontoCerto server",
		"version", cfg.App.Version,
		"timezone", cfg.App.Timezone,
		"scheduler", cfg.Scheduler.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Application
	// ─────────────────────────────────────────────────────────────────────────
	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpserver.NewServer(a.HTTPConfig(), a.HTTPDependencies())

	// ─────────────────────────────────────────────────────────────────────────
	// 3. Run until a signal arrives or a component fails
	// ─────────────────────────────────────────────────────────────────────────
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.App.ShutdownTimeout)
	})
	if cfg.Scheduler.Enabled {
		sched, err := a.NewScheduler()
		if err != nil {
			return fmt.Errorf("create scheduler: %w", err)
		}
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}
