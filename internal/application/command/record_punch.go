// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD PUNCH COMMAND
// Stores a new punch for a user after checking it against the punch gate.
// The receipt email is sent by the punch_recorded event handler.
// ══════════════════════════════════════════════════════════════════════════════

// RecordPunchCommand contains the data to record a punch.
type RecordPunchCommand struct {
	// ActorID is the user performing the action.
	ActorID string

	// UserID is the user the punch belongs to.
	UserID string

	// Type is the punch type (ENTRY, LUNCH_START, LUNCH_END, EXIT).
	Type string

	// Notes is an optional free-text observation.
	Notes string

	// Location is the device position, if it was available.
	Location *attendance.GeoLocation

	CorrelationID string
}

// Validate validates the command.
func (c RecordPunchCommand) Validate() error {
	if c.UserID == "" {
		return shared.NewDomainError("attendance", "RecordPunch", shared.ErrInvalidID, "user_id is required")
	}
	if _, err := attendance.ParseLogType(c.Type); err != nil {
		return err
	}
	return nil
}

// RecordPunchResult contains the stored punch and the resulting status.
type RecordPunchResult struct {
	Log    attendance.TimeLog
	Status attendance.Status
}

// RecordPunchHandler handles the RecordPunchCommand.
type RecordPunchHandler struct {
	users     staff.Repository
	logs      attendance.Repository
	publisher shared.EventPublisher
	loc       *time.Location
	now       func() time.Time
}

// NewRecordPunchHandler creates a new RecordPunchHandler.
func NewRecordPunchHandler(
	users staff.Repository,
	logs attendance.Repository,
	publisher shared.EventPublisher,
	clock Clock,
) *RecordPunchHandler {
	return &RecordPunchHandler{
		users:     users,
		logs:      logs,
		publisher: publisherOrNop(publisher),
		loc:       clock.location(),
		now:       clock.nowFunc(),
	}
}

// Handle executes the record punch command.
func (h *RecordPunchHandler) Handle(ctx context.Context, cmd RecordPunchCommand) (*RecordPunchResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if _, err := access.SelfOrAdmin(ctx, h.users, cmd.ActorID, cmd.UserID); err != nil {
		return nil, err
	}
	if _, err := h.users.GetByID(ctx, cmd.UserID); err != nil {
		return nil, err
	}

	logType, _ := attendance.ParseLogType(cmd.Type)
	existing, err := h.logs.ListByUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("record_punch: load logs: %w", err)
	}

	now := h.now()
	if err := attendance.CanPunch(existing, logType, now, h.loc); err != nil {
		return nil, err
	}

	log, err := attendance.NewTimeLog(cmd.UserID, logType, now, cmd.Notes, cmd.Location)
	if err != nil {
		return nil, err
	}
	if err := h.logs.Save(ctx, log); err != nil {
		return nil, fmt.Errorf("record_punch: save: %w", err)
	}

	event := shared.NewPunchRecordedEvent(cmd.UserID, log.ID, string(log.Type), log.Timestamp)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	publish(h.publisher, event)

	return &RecordPunchResult{
		Log:    *log,
		Status: attendance.CurrentStatus(append(existing, *log), now, h.loc),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// Clock carries the time source and the clinic location used by handlers.
type Clock struct {
	Location *time.Location
	Now      func() time.Time
}

func (c Clock) location() *time.Location {
	if c.Location == nil {
		return timeutil.SaoPauloTZ
	}
	return c.Location
}

func (c Clock) nowFunc() func() time.Time {
	if c.Now == nil {
		return time.Now
	}
	return c.Now
}

func publisherOrNop(p shared.EventPublisher) shared.EventPublisher {
	if p == nil {
		return shared.NopPublisher{}
	}
	return p
}

// publish hands an event to the bus. The write already happened, so a
// failing subscriber does not undo it.
func publish(p shared.EventPublisher, e shared.Event) {
	if err := p.Publish(e); err != nil {
		slog.Warn("event publish failed",
			"event_type", e.EventType(),
			"aggregate_id", e.AggregateID(),
			"error", err,
		)
	}
}
