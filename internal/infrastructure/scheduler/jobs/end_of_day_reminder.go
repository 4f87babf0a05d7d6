// Package jobs contains the scheduled jobs of the PontoCerto worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// END OF DAY REMINDER JOB
// ══════════════════════════════════════════════════════════════════════════════

// ReminderSweeper runs one reminder sweep.
type ReminderSweeper interface {
	Handle(ctx context.Context, cmd command.SendRemindersCommand) (*command.SendRemindersResult, error)
}

// EndOfDayReminderConfig configures the reminder job.
type EndOfDayReminderConfig struct {
	// Timeout bounds a single sweep. Zero means no timeout.
	Timeout time.Duration
}

// DefaultEndOfDayReminderConfig returns the default configuration.
func DefaultEndOfDayReminderConfig() EndOfDayReminderConfig {
	return EndOfDayReminderConfig{Timeout: 2 * time.Minute}
}

// EndOfDayReminderJob emails users who entered today and have not
// punched out after the cutoff hour. The sweep itself is idempotent per
// user and day, so the job can run every few minutes.
type EndOfDayReminderJob struct {
	sweeper ReminderSweeper
	config  EndOfDayReminderConfig
	logger  *slog.Logger

	lastResult atomic.Pointer[command.SendRemindersResult]
}

// NewEndOfDayReminderJob creates a new reminder job.
func NewEndOfDayReminderJob(sweeper ReminderSweeper, config EndOfDayReminderConfig, logger *slog.Logger) *EndOfDayReminderJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &EndOfDayReminderJob{
		sweeper: sweeper,
		config:  config,
		logger:  logger.With("job", "end_of_day_reminder"),
	}
}

// Name returns the job name.
func (j *EndOfDayReminderJob) Name() string {
	return "end_of_day_reminder"
}

// Description returns a human-readable description.
func (j *EndOfDayReminderJob) Description() string {
	return "Reminds employees with an open work day to punch out"
}

// Run executes one sweep.
func (j *EndOfDayReminderJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.sweeper.Handle(ctx, command.SendRemindersCommand{})
	if result != nil {
		j.lastResult.Store(result)
	}
	if err != nil {
		return fmt.Errorf("reminder sweep: %w", err)
	}

	if result.Checked > 0 {
		j.logger.Info("reminder sweep completed",
			"checked", result.Checked,
			"sent", result.Sent,
			"skipped", result.Skipped,
			"failed", result.Failed,
		)
	}
	if result.Failed > 0 {
		return fmt.Errorf("reminder sweep: %d of %d users failed", result.Failed, result.Checked)
	}
	return nil
}

// LastResult returns the result of the most recent sweep, or nil.
func (j *EndOfDayReminderJob) LastResult() *command.SendRemindersResult {
	return j.lastResult.Load()
}
