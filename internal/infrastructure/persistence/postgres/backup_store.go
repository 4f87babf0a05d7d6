package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/espacohidro/pontocerto/internal/domain/backup"
)

// BackupStore implements backup.Store. Users, logs and settings are
// replaced in one transaction; the outbox and the reminder ledger stay.
type BackupStore struct {
	conn *Connection
}

// NewBackupStore creates a new BackupStore.
func NewBackupStore(conn *Connection) *BackupStore {
	return &BackupStore{conn: conn}
}

var _ backup.Store = (*BackupStore)(nil)

// Replace swaps the stored data for the snapshot's.
func (s *BackupStore) Replace(ctx context.Context, snap *backup.Snapshot) error {
	return s.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM time_logs`); err != nil {
			return fmt.Errorf("failed to clear time logs: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM users`); err != nil {
			return fmt.Errorf("failed to clear users: %w", err)
		}

		users := make([][]any, 0, len(snap.Users))
		for _, u := range snap.Users {
			users = append(users, []any{u.ID, u.Name, u.Email, u.Password, string(u.Role), u.Position})
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"users"},
			[]string{"id", "name", "email", "password", "role", "position"},
			pgx.CopyFromRows(users),
		); err != nil {
			return fmt.Errorf("failed to restore users: %w", err)
		}

		logs := make([][]any, 0, len(snap.Logs))
		for i := range snap.Logs {
			logs = append(logs, logArgs(&snap.Logs[i]))
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"time_logs"},
			[]string{"id", "user_id", "punched_at", "type", "edited", "notes", "latitude", "longitude"},
			pgx.CopyFromRows(logs),
		); err != nil {
			return fmt.Errorf("failed to restore time logs: %w", err)
		}

		return saveSettings(ctx, tx, snap.Settings)
	})
}
