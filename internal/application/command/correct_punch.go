package command

import (
	"context"
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// CORRECT PUNCH COMMAND
// Moves a punch to a new instant and flags it as edited. Employees may
// correct their own punches; the admin is notified by email. Corrections
// made by an admin notify the owner instead.
// ══════════════════════════════════════════════════════════════════════════════

// CorrectPunchCommand contains the data to correct a punch.
type CorrectPunchCommand struct {
	ActorID string
	LogID   string

	// Timestamp is the corrected instant.
	Timestamp time.Time

	CorrelationID string
}

// Validate validates the command.
func (c CorrectPunchCommand) Validate() error {
	if c.LogID == "" {
		return shared.NewDomainError("attendance", "CorrectPunch", shared.ErrInvalidID, "log_id is required")
	}
	if c.Timestamp.IsZero() {
		return shared.ErrInvalidTimestamp
	}
	return nil
}

// CorrectPunchResult contains the corrected punch.
type CorrectPunchResult struct {
	Log          attendance.TimeLog
	PreviousTime time.Time
}

// CorrectPunchHandler handles the CorrectPunchCommand.
type CorrectPunchHandler struct {
	users     staff.Repository
	logs      attendance.Repository
	publisher shared.EventPublisher
}

// NewCorrectPunchHandler creates a new CorrectPunchHandler.
func NewCorrectPunchHandler(users staff.Repository, logs attendance.Repository, publisher shared.EventPublisher) *CorrectPunchHandler {
	return &CorrectPunchHandler{
		users:     users,
		logs:      logs,
		publisher: publisherOrNop(publisher),
	}
}

// Handle executes the correct punch command.
func (h *CorrectPunchHandler) Handle(ctx context.Context, cmd CorrectPunchCommand) (*CorrectPunchResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	actor, err := access.Resolve(ctx, h.users, cmd.ActorID)
	if err != nil {
		return nil, err
	}

	log, err := h.logs.GetByID(ctx, cmd.LogID)
	if err != nil {
		return nil, err
	}
	if err := actor.RequireSelfOrAdmin(log.UserID); err != nil {
		return nil, err
	}

	previous := log.Timestamp
	if err := log.Correct(cmd.Timestamp); err != nil {
		return nil, err
	}
	if err := h.logs.Save(ctx, log); err != nil {
		return nil, fmt.Errorf("correct_punch: save: %w", err)
	}

	event := shared.NewPunchCorrectedEvent(log.UserID, log.ID, previous, log.Timestamp, actor.ID, actor.IsAdmin)
	if cmd.CorrelationID != "" {
		event.BaseEvent = event.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	publish(h.publisher, event)

	return &CorrectPunchResult{Log: *log, PreviousTime: previous}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DELETE PUNCH COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// DeletePunchCommand removes a punch. Admin only.
type DeletePunchCommand struct {
	ActorID string
	LogID   string
}

// DeletePunchHandler handles the DeletePunchCommand.
type DeletePunchHandler struct {
	users     staff.Repository
	logs      attendance.Repository
	publisher shared.EventPublisher
}

// NewDeletePunchHandler creates a new DeletePunchHandler.
func NewDeletePunchHandler(users staff.Repository, logs attendance.Repository, publisher shared.EventPublisher) *DeletePunchHandler {
	return &DeletePunchHandler{users: users, logs: logs, publisher: publisherOrNop(publisher)}
}

// Handle executes the delete punch command.
func (h *DeletePunchHandler) Handle(ctx context.Context, cmd DeletePunchCommand) error {
	if _, err := access.Admin(ctx, h.users, cmd.ActorID); err != nil {
		return err
	}
	log, err := h.logs.GetByID(ctx, cmd.LogID)
	if err != nil {
		return err
	}
	if err := h.logs.Delete(ctx, log.ID); err != nil {
		return err
	}
	publish(h.publisher, shared.NewPunchDeletedEvent(log.UserID, log.ID))
	return nil
}
