package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TIME LOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository implements attendance.Repository for PostgreSQL.
type LogRepository struct {
	conn *Connection
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(conn *Connection) *LogRepository {
	return &LogRepository{conn: conn}
}

var _ attendance.Repository = (*LogRepository)(nil)

const logColumns = `id, user_id, punched_at, type, edited, notes, latitude, longitude`

// Save upserts a log by ID.
func (r *LogRepository) Save(ctx context.Context, l *attendance.TimeLog) error {
	query := `
		INSERT INTO time_logs (` + logColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			punched_at = EXCLUDED.punched_at,
			type = EXCLUDED.type,
			edited = EXCLUDED.edited,
			notes = EXCLUDED.notes,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude
	`

	if _, err := r.conn.Exec(ctx, query, logArgs(l)...); err != nil {
		return fmt.Errorf("failed to save time log: %w", err)
	}
	return nil
}

// GetByID returns a log by ID.
func (r *LogRepository) GetByID(ctx context.Context, id string) (*attendance.TimeLog, error) {
	query := `SELECT ` + logColumns + ` FROM time_logs WHERE id = $1`

	l, err := scanLog(r.conn.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return nil, shared.ErrLogNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan time log: %w", err)
	}
	return l, nil
}

// ListByUser returns every log of a user, newest first.
func (r *LogRepository) ListByUser(ctx context.Context, userID string) ([]attendance.TimeLog, error) {
	return r.list(ctx, `WHERE user_id = $1`, userID)
}

// ListBetween returns a user's logs within [from, to), newest first.
func (r *LogRepository) ListBetween(ctx context.Context, userID string, from, to time.Time) ([]attendance.TimeLog, error) {
	return r.list(ctx, `WHERE user_id = $1 AND punched_at >= $2 AND punched_at < $3`, userID, from, to)
}

// ListAll returns every log, newest first.
func (r *LogRepository) ListAll(ctx context.Context) ([]attendance.TimeLog, error) {
	return r.list(ctx, ``)
}

// Delete removes a log.
func (r *LogRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM time_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete time log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return shared.ErrLogNotFound
	}
	return nil
}

func (r *LogRepository) list(ctx context.Context, where string, args ...any) ([]attendance.TimeLog, error) {
	query := `SELECT ` + logColumns + ` FROM time_logs ` + where + ` ORDER BY punched_at DESC, id`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list time logs: %w", err)
	}
	defer rows.Close()

	logs := make([]attendance.TimeLog, 0)
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan time log: %w", err)
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func logArgs(l *attendance.TimeLog) []any {
	var lat, lng *float64
	if l.Location != nil {
		lat, lng = &l.Location.Latitude, &l.Location.Longitude
	}
	return []any{l.ID, l.UserID, l.Timestamp, string(l.Type), l.Edited, l.Notes, lat, lng}
}

func scanLog(row pgx.Row) (*attendance.TimeLog, error) {
	var l attendance.TimeLog
	var typ string
	var lat, lng *float64
	if err := row.Scan(&l.ID, &l.UserID, &l.Timestamp, &typ, &l.Edited, &l.Notes, &lat, &lng); err != nil {
		return nil, err
	}
	l.Type = attendance.LogType(typ)
	if lat != nil && lng != nil {
		l.Location = &attendance.GeoLocation{Latitude: *lat, Longitude: *lng}
	}
	return &l, nil
}
