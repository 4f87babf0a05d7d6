// Package emailjs implements the optional EmailJS REST relay. The outbox is
// the record of what was sent; this client only tries to deliver a copy.
package emailjs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/pkg/circuitbreaker"
	"github.com/espacohidro/pontocerto/pkg/retry"
)

// DefaultEndpoint is the EmailJS send endpoint.
const DefaultEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the EmailJS client.
type ClientConfig struct {
	// Endpoint is the send URL (default: DefaultEndpoint).
	Endpoint string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// FromName is passed to the template as from_name.
	FromName string

	// HTTPClient overrides the default client.
	HTTPClient *http.Client

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Endpoint: DefaultEndpoint,
		Timeout:  10 * time.Second,
		FromName: "PontoCerto",
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client delivers outbox emails through EmailJS.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	retrier    retry.Policy
	breaker    *circuitbreaker.Breaker
	logger     *slog.Logger
}

var _ notification.Relay = (*Client)(nil)

// NewClient creates a new EmailJS client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	log := config.Logger.With("component", "emailjs")

	return &Client{
		config:     config,
		httpClient: httpClient,
		retrier: retry.Relay(func(attempt int, err error, delay time.Duration) {
			log.Debug("retrying relay request", "attempt", attempt, "delay", delay, "error", err)
		}),
		breaker: circuitbreaker.Relay(
			func(err error) bool { return !retry.IsPermanent(err) && !errors.Is(err, ErrRejected) },
			func(name string, from, to circuitbreaker.State) {
				log.Warn("relay circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		),
		logger: log,
	}
}

// sendRequest is the EmailJS send payload.
type sendRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams templateParams `json:"template_params"`
}

type templateParams struct {
	ToEmail  string `json:"to_email"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	FromName string `json:"from_name,omitempty"`
}

// Deliver implements notification.Relay. Server errors and timeouts are
// retried; 4xx answers fail at once with ErrRejected.
func (c *Client) Deliver(ctx context.Context, creds notification.RelayCredentials, email notification.Email) error {
	if creds.ServiceID == "" || creds.TemplateID == "" || creds.PublicKey == "" {
		return ErrMissingCredentials
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:  creds.ServiceID,
		TemplateID: creds.TemplateID,
		UserID:     creds.PublicKey,
		TemplateParams: templateParams{
			ToEmail:  email.To,
			Subject:  email.Subject,
			Message:  email.Body,
			FromName: c.config.FromName,
		},
	})
	if err != nil {
		return fmt.Errorf("emailjs: marshal request: %w", err)
	}

	err = c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.send(ctx, body)
		})
	})
	if err != nil {
		return fmt.Errorf("emailjs: deliver %s: %w", email.ID, err)
	}

	c.logger.Debug("email relayed", "email_id", email.ID, "to", email.To)
	return nil
}

func (c *Client) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(err)
		}
		return retry.Retryable(fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return retry.Retryable(&StatusError{Code: resp.StatusCode, Body: string(respBody)})
	default:
		return fmt.Errorf("%w: %w", ErrRejected, &StatusError{Code: resp.StatusCode, Body: string(respBody)})
	}
}

// BreakerState reports the relay circuit state, for health output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrMissingCredentials is returned when the settings lack EmailJS ids.
	ErrMissingCredentials = errors.New("emailjs credentials are incomplete")

	// ErrRejected is returned when EmailJS refuses the request (4xx).
	ErrRejected = errors.New("emailjs rejected the request")
)

// StatusError carries a non-2xx EmailJS answer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Body)
}
