// Package eventhandler contains domain event handlers.
package eventhandler

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

// ═══════════════════════════════════════════════════════════════════════════
// ON PUNCH RECORDED HANDLER
// Emails the punch receipt to the user who punched.
// ═══════════════════════════════════════════════════════════════════════════

// OnPunchRecordedHandler sends punch receipts.
type OnPunchRecordedHandler struct {
	users  staff.Repository
	logs   attendance.Repository
	sender notification.Sender
	loc    *time.Location
	logger *slog.Logger
}

// NewOnPunchRecordedHandler creates a new OnPunchRecordedHandler.
func NewOnPunchRecordedHandler(
	users staff.Repository,
	logs attendance.Repository,
	sender notification.Sender,
	loc *time.Location,
	logger *slog.Logger,
) *OnPunchRecordedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = timeutil.SaoPauloTZ
	}
	return &OnPunchRecordedHandler{
		users:  users,
		logs:   logs,
		sender: sender,
		loc:    loc,
		logger: logger.With("handler", "on_punch_recorded"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnPunchRecordedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.PunchRecordedEvent)
	if !ok {
		h.logger.Warn("received non-PunchRecordedEvent", "event_type", event.EventType())
		return nil
	}

	user, err := h.users.GetByID(ctx, e.AggregateID())
	if err != nil {
		return fmt.Errorf("on_punch_recorded: load user: %w", err)
	}
	log, err := h.logs.GetByID(ctx, e.LogID)
	if err != nil {
		return fmt.Errorf("on_punch_recorded: load log: %w", err)
	}

	if _, err := h.sender.Send(ctx, notification.PunchReceipt(user.Email, user.Name, *log, h.loc)); err != nil {
		return fmt.Errorf("on_punch_recorded: send receipt: %w", err)
	}
	h.logger.Debug("receipt sent", "user_id", user.ID, "log_id", log.ID)
	return nil
}

// EventType returns the event type this handler processes.
func (h *OnPunchRecordedHandler) EventType() shared.EventType {
	return shared.EventPunchRecorded
}
