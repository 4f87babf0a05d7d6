// Package service contains adapters that combine repositories and external
// clients behind domain ports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
)

// Mailer implements notification.Sender. Every message lands in the outbox;
// when the relay is enabled and the stored settings carry EmailJS
// credentials, it is also handed to the relay.
type Mailer struct {
	outbox   notification.Outbox
	settings settings.Repository
	relay    notification.Relay
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// MailerConfig configures a Mailer.
type MailerConfig struct {
	// Relay is optional. Nil keeps delivery internal.
	Relay notification.Relay

	// RelayTimeout bounds one relay attempt sequence.
	RelayTimeout time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// NewMailer creates a new Mailer.
func NewMailer(outbox notification.Outbox, settingsRepo settings.Repository, cfg MailerConfig) *Mailer {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RelayTimeout <= 0 {
		cfg.RelayTimeout = 15 * time.Second
	}
	return &Mailer{
		outbox:   outbox,
		settings: settingsRepo,
		relay:    cfg.Relay,
		timeout:  cfg.RelayTimeout,
		logger:   cfg.Logger.With("component", "mailer"),
		now:      cfg.Now,
	}
}

var _ notification.Sender = (*Mailer)(nil)

// Send implements notification.Sender.
func (m *Mailer) Send(ctx context.Context, msg notification.Message) (*notification.Email, error) {
	email, err := notification.NewEmail(msg.To, msg.Subject, msg.Body, m.now())
	if err != nil {
		return nil, err
	}
	if err := m.outbox.Append(ctx, email); err != nil {
		return nil, fmt.Errorf("mailer: append to outbox: %w", err)
	}

	m.logger.Info("email sent",
		"to", email.To,
		"subject", email.Subject,
		"email_id", email.ID,
	)

	m.deliver(ctx, *email)
	return email, nil
}

func (m *Mailer) deliver(ctx context.Context, email notification.Email) {
	if m.relay == nil || m.settings == nil {
		return
	}
	cfg, err := m.settings.Get(ctx)
	if err != nil {
		m.logger.Warn("relay skipped: settings unavailable", "error", err)
		return
	}
	if !cfg.RelayConfigured() {
		return
	}
	creds := notification.RelayCredentials{
		ServiceID:  cfg.EmailJSServiceID,
		TemplateID: cfg.EmailJSTemplateID,
		PublicKey:  cfg.EmailJSPublicKey,
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.relay.Deliver(ctx, creds, email); err != nil {
		m.logger.Warn("relay delivery failed, kept in outbox only",
			"email_id", email.ID,
			"to", email.To,
			"error", err,
		)
	}
}
