package query

import (
	"context"
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// GetSettingsHandler returns the stored settings, or the defaults.
type GetSettingsHandler struct {
	settings settings.Repository
}

// NewGetSettingsHandler creates a new GetSettingsHandler.
func NewGetSettingsHandler(repo settings.Repository) *GetSettingsHandler {
	return &GetSettingsHandler{settings: repo}
}

// Handle executes the query.
func (h *GetSettingsHandler) Handle(ctx context.Context) (settings.CompanySettings, error) {
	return h.settings.Get(ctx)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST NOTIFICATIONS QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ListNotificationsHandler returns outbox emails, newest first.
type ListNotificationsHandler struct {
	users  staff.Repository
	outbox notification.Outbox
}

// NewListNotificationsHandler creates a new ListNotificationsHandler.
func NewListNotificationsHandler(users staff.Repository, outbox notification.Outbox) *ListNotificationsHandler {
	return &ListNotificationsHandler{users: users, outbox: outbox}
}

// Handle lists the mailbox of recipient. Employees always get their own.
func (h *ListNotificationsHandler) Handle(ctx context.Context, actorID, recipient string) ([]notification.Email, error) {
	to, err := access.Mailbox(ctx, h.users, actorID, recipient)
	if err != nil {
		return nil, err
	}
	return h.outbox.List(ctx, to)
}

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT BACKUP QUERY
// ══════════════════════════════════════════════════════════════════════════════

// ExportBackupResult is a serialized snapshot with its suggested file name.
type ExportBackupResult struct {
	FileName string
	Data     []byte
	Snapshot backup.Snapshot
}

// ExportBackupHandler builds a full snapshot. Admin only.
type ExportBackupHandler struct {
	users    staff.Repository
	logs     attendance.Repository
	settings settings.Repository
	clock    Clock
}

// NewExportBackupHandler creates a new ExportBackupHandler.
func NewExportBackupHandler(users staff.Repository, logs attendance.Repository, settingsRepo settings.Repository, clock Clock) *ExportBackupHandler {
	return &ExportBackupHandler{users: users, logs: logs, settings: settingsRepo, clock: clock}
}

// Handle executes the query.
func (h *ExportBackupHandler) Handle(ctx context.Context, actorID string) (*ExportBackupResult, error) {
	if _, err := access.Admin(ctx, h.users, actorID); err != nil {
		return nil, err
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_backup: users: %w", err)
	}
	logs, err := h.logs.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_backup: logs: %w", err)
	}
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("export_backup: settings: %w", err)
	}

	now := h.clock.now()
	snap := backup.Snapshot{
		Version:    backup.CurrentVersion,
		ExportedAt: now.UTC().Truncate(time.Second),
		Users:      users,
		Logs:       logs,
		Settings:   cfg,
	}
	data, err := snap.Marshal()
	if err != nil {
		return nil, fmt.Errorf("export_backup: marshal: %w", err)
	}
	return &ExportBackupResult{
		FileName: backup.FileName(now, h.clock.location()),
		Data:     data,
		Snapshot: snap,
	}, nil
}
