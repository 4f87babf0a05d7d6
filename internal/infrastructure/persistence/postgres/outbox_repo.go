package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// OUTBOX
// An empty recipient selects every email. Recipients compare case-insensitively.
// ══════════════════════════════════════════════════════════════════════════════

// Outbox implements notification.Outbox for PostgreSQL.
type Outbox struct {
	conn *Connection
}

// NewOutbox creates a new Outbox.
func NewOutbox(conn *Connection) *Outbox {
	return &Outbox{conn: conn}
}

var _ notification.Outbox = (*Outbox)(nil)

const recipientFilter = `($1 = '' OR lower(recipient) = lower($1))`

// Append stores an email.
func (o *Outbox) Append(ctx context.Context, e *notification.Email) error {
	query := `
		INSERT INTO notifications (id, recipient, subject, body, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := o.conn.Exec(ctx, query, e.ID, e.To, e.Subject, e.Body, e.Timestamp, e.Read); err != nil {
		return fmt.Errorf("failed to append email: %w", err)
	}
	return nil
}

// List returns the recipient's emails, newest first.
func (o *Outbox) List(ctx context.Context, recipient string) ([]notification.Email, error) {
	query := `
		SELECT id, recipient, subject, body, sent_at, read
		FROM notifications
		WHERE ` + recipientFilter + `
		ORDER BY sent_at DESC, id
	`

	rows, err := o.conn.Query(ctx, query, recipient)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	emails := make([]notification.Email, 0)
	for rows.Next() {
		var e notification.Email
		if err := rows.Scan(&e.ID, &e.To, &e.Subject, &e.Body, &e.Timestamp, &e.Read); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// MarkAllAsRead flags unread emails of the recipient and returns how many changed.
func (o *Outbox) MarkAllAsRead(ctx context.Context, recipient string) (int, error) {
	result, err := o.conn.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE NOT read AND `+recipientFilter, recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to mark emails as read: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// Clear deletes the recipient's emails.
func (o *Outbox) Clear(ctx context.Context, recipient string) (int, error) {
	result, err := o.conn.Exec(ctx, `DELETE FROM notifications WHERE `+recipientFilter, recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to clear emails: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// DeleteOlderThan removes emails sent before cutoff.
func (o *Outbox) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	result, err := o.conn.Exec(ctx, `DELETE FROM notifications WHERE sent_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune emails: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// ReminderLedger implements notification.ReminderLedger with the
// reminders_sent table.
type ReminderLedger struct {
	conn *Connection
}

// NewReminderLedger creates a new ReminderLedger.
func NewReminderLedger(conn *Connection) *ReminderLedger {
	return &ReminderLedger{conn: conn}
}

var _ notification.ReminderLedger = (*ReminderLedger)(nil)

// MarkSent records the reminder and reports whether this call was the first
// for (userID, day).
func (l *ReminderLedger) MarkSent(ctx context.Context, userID, day string) (bool, error) {
	d, err := time.Parse(timeutil.FormatDate, day)
	if err != nil {
		return false, fmt.Errorf("reminder ledger: %w", err)
	}
	result, err := l.conn.Exec(ctx,
		`INSERT INTO reminders_sent (user_id, day) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, d)
	if err != nil {
		return false, fmt.Errorf("failed to record reminder: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

// Release deletes the mark left by MarkSent.
func (l *ReminderLedger) Release(ctx context.Context, userID, day string) error {
	d, err := time.Parse(timeutil.FormatDate, day)
	if err != nil {
		return fmt.Errorf("reminder ledger: %w", err)
	}
	if _, err := l.conn.Exec(ctx,
		`DELETE FROM reminders_sent WHERE user_id = $1 AND day = $2`, userID, d); err != nil {
		return fmt.Errorf("failed to release reminder: %w", err)
	}
	return nil
}
