package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEND END-OF-DAY REMINDERS COMMAND
// Checks every user for an entry without an exit today and emails a
// reminder once per user per day. Run by the scheduler.
// ══════════════════════════════════════════════════════════════════════════════

// SendRemindersCommand runs one reminder sweep.
type SendRemindersCommand struct {
	// Now overrides the clock, mainly for tests and manual runs. Zero means now.
	Now time.Time
}

// SendRemindersResult summarises a sweep.
type SendRemindersResult struct {
	Checked int
	Sent    int
	Skipped int
	Failed  int
}

// ReminderConfig configures the reminder sweep.
type ReminderConfig struct {
	// CutoffHour is the local hour from which reminders go out.
	CutoffHour int
}

// SendRemindersHandler handles the SendRemindersCommand.
type SendRemindersHandler struct {
	users     staff.Repository
	logs      attendance.Repository
	ledger    notification.ReminderLedger
	sender    notification.Sender
	publisher shared.EventPublisher
	clock     Clock
	config    ReminderConfig
	logger    *slog.Logger
}

// NewSendRemindersHandler creates a new SendRemindersHandler.
func NewSendRemindersHandler(
	users staff.Repository,
	logs attendance.Repository,
	ledger notification.ReminderLedger,
	sender notification.Sender,
	publisher shared.EventPublisher,
	clock Clock,
	config ReminderConfig,
	logger *slog.Logger,
) *SendRemindersHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.CutoffHour <= 0 {
		config.CutoffHour = notification.DefaultReminderHour
	}
	return &SendRemindersHandler{
		users:     users,
		logs:      logs,
		ledger:    ledger,
		sender:    sender,
		publisher: publisherOrNop(publisher),
		clock:     clock,
		config:    config,
		logger:    logger.With("command", "send_reminders"),
	}
}

// Handle executes one sweep. A failure for one user does not stop the others.
func (h *SendRemindersHandler) Handle(ctx context.Context, cmd SendRemindersCommand) (*SendRemindersResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = h.clock.nowFunc()()
	}
	loc := h.clock.location()
	if now.In(loc).Hour() < h.config.CutoffHour {
		return &SendRemindersResult{}, nil
	}

	users, err := h.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("send_reminders: list users: %w", err)
	}

	day := timeutil.DayKey(now, loc)
	from := timeutil.StartOfDay(now, loc)
	to := from.AddDate(0, 0, 1)
	result := &SendRemindersResult{}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		today, err := h.logs.ListBetween(ctx, u.ID, from, to)
		if err != nil {
			result.Failed++
			h.logger.Error("failed to load logs", "user_id", u.ID, "error", err)
			continue
		}
		if !notification.ShouldRemind(now, today, h.config.CutoffHour, loc) {
			continue
		}

		first, err := h.ledger.MarkSent(ctx, u.ID, day)
		if err != nil {
			result.Failed++
			h.logger.Error("failed to mark reminder", "user_id", u.ID, "error", err)
			continue
		}
		if !first {
			result.Skipped++
			continue
		}

		// The mark is taken before sending so concurrent sweeps never
		// double-send; a failed send gives it back for the next tick.
		if _, err := h.sender.Send(ctx, notification.ExitReminder(u.Email, u.Name)); err != nil {
			result.Failed++
			h.logger.Error("failed to send reminder", "user_id", u.ID, "error", err)
			if err := h.ledger.Release(ctx, u.ID, day); err != nil {
				h.logger.Error("failed to release reminder mark", "user_id", u.ID, "error", err)
			}
			continue
		}
		result.Sent++
		publish(h.publisher, shared.NewReminderSentEvent(u.ID, day))
	}

	h.logger.Info("reminder sweep finished",
		"day", day,
		"checked", result.Checked,
		"sent", result.Sent,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)
	return result, nil
}
