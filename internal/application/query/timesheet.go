package query

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// ══════════════════════════════════════════════════════════════════════════════
// BUILD TIMESHEET QUERY
// Collects everything the timesheet export needs and hands it to a renderer.
// ══════════════════════════════════════════════════════════════════════════════

// Timesheet is the data behind one user's timesheet.
type Timesheet struct {
	User     staff.User
	Settings settings.CompanySettings
	IssuedAt time.Time
	Location *time.Location

	// Logs are newest first.
	Logs []attendance.TimeLog

	// Hours holds the daily breakdown and the total.
	Hours WorkedHoursDTO
}

// TimesheetRenderer writes a timesheet in some document format.
type TimesheetRenderer interface {
	ContentType() string
	FileName(ts *Timesheet) string
	Render(ts *Timesheet, w io.Writer) error
}

// BuildTimesheetHandler handles timesheet requests.
type BuildTimesheetHandler struct {
	users    staff.Repository
	logs     attendance.Repository
	settings settings.Repository
	clock    Clock
}

// NewBuildTimesheetHandler creates a new BuildTimesheetHandler.
func NewBuildTimesheetHandler(users staff.Repository, logs attendance.Repository, settingsRepo settings.Repository, clock Clock) *BuildTimesheetHandler {
	return &BuildTimesheetHandler{users: users, logs: logs, settings: settingsRepo, clock: clock}
}

// Handle gathers the timesheet of q.UserID, limited to q.Filter's date range.
func (h *BuildTimesheetHandler) Handle(ctx context.Context, q LogsQuery) (*Timesheet, error) {
	if _, err := access.SelfOrAdmin(ctx, h.users, q.ActorID, q.UserID); err != nil {
		return nil, err
	}
	user, err := h.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}
	all, err := h.logs.ListByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("timesheet: logs: %w", err)
	}
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("timesheet: settings: %w", err)
	}

	loc := h.clock.location()
	logs := q.Filter.Apply(all, loc)
	return &Timesheet{
		User:     user.Public(),
		Settings: cfg,
		IssuedAt: h.clock.now(),
		Location: loc,
		Logs:     logs,
		Hours:    *summarize(logs, cfg, loc),
	}, nil
}
