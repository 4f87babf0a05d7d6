package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE SETTINGS COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// UpdateSettingsCommand replaces the clinic schedule. Admin only.
type UpdateSettingsCommand struct {
	ActorID  string
	Settings settings.CompanySettings
}

// UpdateSettingsHandler handles the UpdateSettingsCommand.
type UpdateSettingsHandler struct {
	users    staff.Repository
	settings settings.Repository
}

// NewUpdateSettingsHandler creates a new UpdateSettingsHandler.
func NewUpdateSettingsHandler(users staff.Repository, repo settings.Repository) *UpdateSettingsHandler {
	return &UpdateSettingsHandler{users: users, settings: repo}
}

// Handle validates and stores the settings.
func (h *UpdateSettingsHandler) Handle(ctx context.Context, cmd UpdateSettingsCommand) (*settings.CompanySettings, error) {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return nil, err
	}
	s := cmd.Settings
	s.WorkStart = strings.TrimSpace(s.WorkStart)
	s.WorkEnd = strings.TrimSpace(s.WorkEnd)
	s.LunchStart = strings.TrimSpace(s.LunchStart)
	s.LunchEnd = strings.TrimSpace(s.LunchEnd)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := h.settings.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("update_settings: save: %w", err)
	}
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTBOX COMMANDS
// Employees can only touch their own mailbox. Admins may pass any
// recipient, or none for the whole outbox.
// ══════════════════════════════════════════════════════════════════════════════

// OutboxCommand targets the emails of one recipient.
type OutboxCommand struct {
	ActorID   string
	Recipient string
}

// OutboxHandler handles MarkNotificationsRead and ClearNotifications.
type OutboxHandler struct {
	users  staff.Repository
	outbox notification.Outbox
}

// NewOutboxHandler creates a new OutboxHandler.
func NewOutboxHandler(users staff.Repository, outbox notification.Outbox) *OutboxHandler {
	return &OutboxHandler{users: users, outbox: outbox}
}

// MarkNotificationsRead flags the recipient's emails as read.
func (h *OutboxHandler) MarkNotificationsRead(ctx context.Context, cmd OutboxCommand) (int, error) {
	recipient, err := access.Mailbox(ctx, h.users, cmd.ActorID, cmd.Recipient)
	if err != nil {
		return 0, err
	}
	return h.outbox.MarkAllAsRead(ctx, recipient)
}

// ClearNotifications deletes the recipient's emails.
func (h *OutboxHandler) ClearNotifications(ctx context.Context, cmd OutboxCommand) (int, error) {
	recipient, err := access.Mailbox(ctx, h.users, cmd.ActorID, cmd.Recipient)
	if err != nil {
		return 0, err
	}
	return h.outbox.Clear(ctx, recipient)
}
