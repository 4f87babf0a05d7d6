package command

import (
	"context"
	"fmt"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// IMPORT BACKUP COMMAND
// Replaces users, logs and settings with the content of a snapshot file.
// A file that fails to parse leaves the stored data untouched.
// ══════════════════════════════════════════════════════════════════════════════

// ImportBackupCommand carries the raw snapshot JSON. Admin only.
type ImportBackupCommand struct {
	ActorID string
	Data    []byte
}

// ImportBackupResult reports the imported volume.
type ImportBackupResult struct {
	Users int `json:"users"`
	Logs  int `json:"logs"`
}

// ImportBackupHandler handles the ImportBackupCommand.
type ImportBackupHandler struct {
	users     staff.Repository
	store     backup.Store
	publisher shared.EventPublisher
}

// NewImportBackupHandler creates a new ImportBackupHandler.
func NewImportBackupHandler(users staff.Repository, store backup.Store, publisher shared.EventPublisher) *ImportBackupHandler {
	return &ImportBackupHandler{users: users, store: store, publisher: publisherOrNop(publisher)}
}

// Handle executes the import backup command.
func (h *ImportBackupHandler) Handle(ctx context.Context, cmd ImportBackupCommand) (*ImportBackupResult, error) {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return nil, err
	}
	snap, err := backup.Parse(cmd.Data)
	if err != nil {
		return nil, err
	}
	if err := h.store.Replace(ctx, snap); err != nil {
		return nil, fmt.Errorf("import_backup: replace: %w", err)
	}

	publish(h.publisher, shared.NewBackupImportedEvent(len(snap.Users), len(snap.Logs)))
	return &ImportBackupResult{Users: len(snap.Users), Logs: len(snap.Logs)}, nil
}
