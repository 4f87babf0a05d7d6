package eventhandler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
)

// OnUserCreatedHandler emails login details to new users.
type OnUserCreatedHandler struct {
	sender notification.Sender
	logger *slog.Logger
}

// NewOnUserCreatedHandler creates a new OnUserCreatedHandler.
func NewOnUserCreatedHandler(sender notification.Sender, logger *slog.Logger) *OnUserCreatedHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OnUserCreatedHandler{sender: sender, logger: logger.With("handler", "on_user_created")}
}

// Handle implements shared.EventHandler.
func (h *OnUserCreatedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.UserCreatedEvent)
	if !ok {
		h.logger.Warn("received non-UserCreatedEvent", "event_type", event.EventType())
		return nil
	}
	if _, err := h.sender.Send(context.Background(), notification.Welcome(e.Email, e.InitialPassword)); err != nil {
		return fmt.Errorf("on_user_created: send welcome: %w", err)
	}
	return nil
}

// EventType returns the event type this handler processes.
func (h *OnUserCreatedHandler) EventType() shared.EventType {
	return shared.EventUserCreated
}

// Handler is an event handler that knows its event type.
type Handler interface {
	Handle(event shared.Event) error
	EventType() shared.EventType
}

// Register subscribes every handler to its event type.
func Register(bus shared.EventSubscriber, handlers ...Handler) error {
	for _, h := range handlers {
		if err := bus.Subscribe(h.EventType(), h.Handle); err != nil {
			return fmt.Errorf("register %s: %w", h.EventType(), err)
		}
	}
	return nil
}
