// Package main is pontoctl, the operator command line for PontoCerto.
//
// It runs maintenance tasks against the configured database: schema
// migrations, backups, roster imports, timesheet exports and manual
// reminder sweeps. Commands act as the system and bypass role checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/espacohidro/pontocerto/config"
	"github.com/espacohidro/pontocerto/internal/app"
	"github.com/espacohidro/pontocerto/pkg/logger"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

var errNoDatabase = errors.New("pontoctl needs a database: set DATABASE_URL or database.url")

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pontoctl",
	Short: "PontoCerto operator tools",
	Long: `pontoctl runs maintenance tasks against the PontoCerto database.

Configuration is read the same way as the server: defaults, then the YAML
file given by --config or CONFIG_FILE, then environment variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(migrateCmd, backupCmd, staffCmd, reportCmd, remindCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and builds a logger that writes to
// stderr, keeping stdout for command output.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Options{
		Output: os.Stderr,
		Level:  level,
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
		Attrs:  []slog.Attr{slog.String("service", "pontoctl")},
	})
	return cfg, log, nil
}

// openApp assembles the application against the configured database.
// Event handlers run synchronously so queued emails are stored before exit.
func openApp(ctx context.Context) (*app.App, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.UsesMemoryStore() {
		return nil, errNoDatabase
	}
	return app.New(ctx, cfg, log, app.Options{SyncEvents: true})
}
