package eventhandler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON PUNCH CORRECTED HANDLER
// An employee correcting their own punch notifies the administrator.
// An administrator correcting a punch notifies its owner.
// ═══════════════════════════════════════════════════════════════════════════

// OnPunchCorrectedHandler sends correction emails.
type OnPunchCorrectedHandler struct {
	users      staff.Repository
	sender     notification.Sender
	adminEmail string
	loc        *time.Location
	logger     *slog.Logger
}

// NewOnPunchCorrectedHandler creates a new OnPunchCorrectedHandler.
// adminEmail receives employee correction requests.
func NewOnPunchCorrectedHandler(
	users staff.Repository,
	sender notification.Sender,
	adminEmail string,
	loc *time.Location,
	logger *slog.Logger,
) *OnPunchCorrectedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = timeutil.SaoPauloTZ
	}
	if adminEmail == "" {
		adminEmail = staff.DefaultAdminEmail
	}
	return &OnPunchCorrectedHandler{
		users:      users,
		sender:     sender,
		adminEmail: adminEmail,
		loc:        loc,
		logger:     logger.With("handler", "on_punch_corrected"),
	}
}

// Handle implements shared.EventHandler.
func (h *OnPunchCorrectedHandler) Handle(event shared.Event) error {
	ctx := context.Background()

	e, ok := event.(shared.PunchCorrectedEvent)
	if !ok {
		h.logger.Warn("received non-PunchCorrectedEvent", "event_type", event.EventType())
		return nil
	}

	owner, err := h.users.GetByID(ctx, e.AggregateID())
	if err != nil {
		return fmt.Errorf("on_punch_corrected: load user: %w", err)
	}

	var msg notification.Message
	if e.ActorIsAdmin {
		msg = notification.CorrectionDone(owner.Email, e.NewTime, h.loc)
	} else {
		msg = notification.CorrectionRequest(h.adminEmail, owner.Name, e.PreviousTime, e.NewTime, h.loc)
	}

	if _, err := h.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("on_punch_corrected: send: %w", err)
	}

	h.logger.Info("correction notice sent",
		"log_id", e.LogID,
		"user_id", owner.ID,
		"by_admin", e.ActorIsAdmin,
	)
	return nil
}

// EventType returns the event type this handler processes.
func (h *OnPunchCorrectedHandler) EventType() shared.EventType {
	return shared.EventPunchCorrected
}
