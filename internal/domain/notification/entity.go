// Package notification contains the email outbox model: the stored list of
// messages the system sends, the message templates, and the end-of-day
// reminder rule.
package notification

import (
	"context"
	"strings"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Email is an outbox entry. The outbox is the record of what was sent,
// whether or not a relay delivered it.
type Email struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`
}

// NewEmail builds an unread outbox entry stamped at now.
func NewEmail(to, subject, body string, now time.Time) (*Email, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, shared.NewDomainError("notification", "NewEmail", shared.ErrEmptyValue, "recipient is required")
	}
	return &Email{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   subject,
		Body:      body,
		Timestamp: now,
	}, nil
}

// Message is an email before it is stored.
type Message struct {
	To      string
	Subject string
	Body    string
}

// ══════════════════════════════════════════════════════════════════════════════
// PORTS
// ══════════════════════════════════════════════════════════════════════════════

// Outbox persists sent emails. Recipient filters compare addresses
// case-insensitively; an empty recipient means every email.
type Outbox interface {
	// Append stores a new email.
	Append(ctx context.Context, email *Email) error

	// List returns emails newest first.
	List(ctx context.Context, recipient string) ([]Email, error)

	// MarkAllAsRead flags emails as read. Returns the number changed.
	MarkAllAsRead(ctx context.Context, recipient string) (int, error)

	// Clear deletes emails. Returns the number removed.
	Clear(ctx context.Context, recipient string) (int, error)

	// DeleteOlderThan removes emails stamped before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Sender stores a message in the outbox and hands it to the relay when one
// is configured. Relay failures are logged, never returned.
type Sender interface {
	Send(ctx context.Context, msg Message) (*Email, error)
}

// RelayCredentials identify the account and template used by the relay.
type RelayCredentials struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// Relay hands an email to an external delivery service. Delivery is best
// effort: callers log relay errors and carry on.
type Relay interface {
	Deliver(ctx context.Context, creds RelayCredentials, email Email) error
}

// ReminderLedger remembers which users were already reminded on a day.
type ReminderLedger interface {
	// MarkSent records (userID, day) and reports whether this call was the
	// first to do so. Only the first caller should send the reminder.
	MarkSent(ctx context.Context, userID, day string) (bool, error)
	// Release forgets (userID, day) so a later sweep can try again.
	Release(ctx context.Context, userID, day string) error
}
