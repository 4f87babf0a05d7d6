// Package shared contains common domain types, errors and events
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Event handlers in the application layer turn most of
// them into outbox emails.
const (
	// Attendance events
	EventPunchRecorded  EventType = "attendance.punch_recorded"
	EventPunchCorrected EventType = "attendance.punch_corrected"
	EventPunchDeleted   EventType = "attendance.punch_deleted"

	// Staff events
	EventUserCreated EventType = "staff.user_created"
	EventUserDeleted EventType = "staff.user_deleted"

	// Notification events
	EventReminderSent EventType = "notification.reminder_sent"

	// System events
	EventBackupImported EventType = "system.backup_imported"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// PunchRecordedEvent is emitted after an employee punch is stored.
// The aggregate is the user.
type PunchRecordedEvent struct {
	BaseEvent
	LogID     string    `json:"log_id"`
	LogType   string    `json:"log_type"`
	PunchedAt time.Time `json:"punched_at"`
}

// Payload implements Event interface.
func (e PunchRecordedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"log_id":     e.LogID,
		"log_type":   e.LogType,
		"punched_at": e.PunchedAt,
	}
}

// NewPunchRecordedEvent creates a new PunchRecordedEvent.
func NewPunchRecordedEvent(userID, logID, logType string, punchedAt time.Time) PunchRecordedEvent {
	return PunchRecordedEvent{
		BaseEvent: NewBaseEvent(EventPunchRecorded, userID),
		LogID:     logID,
		LogType:   logType,
		PunchedAt: punchedAt,
	}
}

// PunchCorrectedEvent is emitted when a log timestamp is edited.
type PunchCorrectedEvent struct {
	BaseEvent
	LogID        string    `json:"log_id"`
	PreviousTime time.Time `json:"previous_time"`
	NewTime      time.Time `json:"new_time"`
	ActorID      string    `json:"actor_id"`
	ActorIsAdmin bool      `json:"actor_is_admin"`
}

// Payload implements Event interface.
func (e PunchCorrectedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"log_id":         e.LogID,
		"previous_time":  e.PreviousTime,
		"new_time":       e.NewTime,
		"actor_id":       e.ActorID,
		"actor_is_admin": e.ActorIsAdmin,
	}
}

// NewPunchCorrectedEvent creates a new PunchCorrectedEvent.
func NewPunchCorrectedEvent(userID, logID string, previous, next time.Time, actorID string, actorIsAdmin bool) PunchCorrectedEvent {
	return PunchCorrectedEvent{
		BaseEvent:    NewBaseEvent(EventPunchCorrected, userID),
		LogID:        logID,
		PreviousTime: previous,
		NewTime:      next,
		ActorID:      actorID,
		ActorIsAdmin: actorIsAdmin,
	}
}

// PunchDeletedEvent is emitted when an admin removes a log.
type PunchDeletedEvent struct {
	BaseEvent
	LogID string `json:"log_id"`
}

// Payload implements Event interface.
func (e PunchDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"log_id": e.LogID}
}

// NewPunchDeletedEvent creates a new PunchDeletedEvent.
func NewPunchDeletedEvent(userID, logID string) PunchDeletedEvent {
	return PunchDeletedEvent{
		BaseEvent: NewBaseEvent(EventPunchDeleted, userID),
		LogID:     logID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Staff Events
// ═══════════════════════════════════════════════════════════════════════════

// UserCreatedEvent is emitted when an admin registers a new user.
// InitialPassword is the code as typed, before any hashing policy applies.
type UserCreatedEvent struct {
	BaseEvent
	Name            string `json:"name"`
	Email           string `json:"email"`
	InitialPassword string `json:"-"`
}

// Payload implements Event interface.
func (e UserCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":  e.Name,
		"email": e.Email,
	}
}

// NewUserCreatedEvent creates a new UserCreatedEvent.
func NewUserCreatedEvent(userID, name, email, initialPassword string) UserCreatedEvent {
	return UserCreatedEvent{
		BaseEvent:       NewBaseEvent(EventUserCreated, userID),
		Name:            name,
		Email:           email,
		InitialPassword: initialPassword,
	}
}

// UserDeletedEvent is emitted when a user is removed.
type UserDeletedEvent struct {
	BaseEvent
}

// Payload implements Event interface.
func (e UserDeletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{}
}

// NewUserDeletedEvent creates a new UserDeletedEvent.
func NewUserDeletedEvent(userID string) UserDeletedEvent {
	return UserDeletedEvent{BaseEvent: NewBaseEvent(EventUserDeleted, userID)}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification & System Events
// ═══════════════════════════════════════════════════════════════════════════

// ReminderSentEvent is emitted after an end-of-day reminder goes out.
type ReminderSentEvent struct {
	BaseEvent
	Day string `json:"day"`
}

// Payload implements Event interface.
func (e ReminderSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"day": e.Day}
}

// NewReminderSentEvent creates a new ReminderSentEvent.
func NewReminderSentEvent(userID, day string) ReminderSentEvent {
	return ReminderSentEvent{
		BaseEvent: NewBaseEvent(EventReminderSent, userID),
		Day:       day,
	}
}

// BackupImportedEvent is emitted after a restore replaced the stored data.
type BackupImportedEvent struct {
	BaseEvent
	Users int `json:"users"`
	Logs  int `json:"logs"`
}

// Payload implements Event interface.
func (e BackupImportedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"users": e.Users,
		"logs":  e.Logs,
	}
}

// NewBackupImportedEvent creates a new BackupImportedEvent.
func NewBackupImportedEvent(users, logs int) BackupImportedEvent {
	return BackupImportedEvent{
		BaseEvent: NewBaseEvent(EventBackupImported, "system"),
		Users:     users,
		Logs:      logs,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Contracts
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
