package query

import (
	"context"
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/application/access"
	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTENDANCE QUERIES
// Punch status, filtered log listing with deviations, and worked hours.
// ══════════════════════════════════════════════════════════════════════════════

// Clock carries the time source and the clinic location.
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

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// PunchStatusDTO is the punch status plus a formatted worked time.
type PunchStatusDTO struct {
	attendance.Status
	WorkedTodayFormatted string `json:"workedTodayFormatted"`
}

// LogView is a log with its schedule deviation, if any.
type LogView struct {
	attendance.TimeLog
	Deviation *attendance.Deviation `json:"deviation,omitempty"`
}

// WorkedHoursDTO is the per-day breakdown and the total.
type WorkedHoursDTO struct {
	Days           []attendance.DaySummary `json:"days"`
	Total          time.Duration           `json:"total"`
	TotalFormatted string                  `json:"totalFormatted"`
}

// LogsQuery selects a user's logs.
type LogsQuery struct {
	ActorID string
	UserID  string
	Filter  attendance.Filter
}

// AttendanceHandler serves GetPunchStatus, ListLogs and GetWorkedHours.
type AttendanceHandler struct {
	users    staff.Repository
	logs     attendance.Repository
	settings settings.Repository
	clock    Clock
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(users staff.Repository, logs attendance.Repository, settingsRepo settings.Repository, clock Clock) *AttendanceHandler {
	return &AttendanceHandler{users: users, logs: logs, settings: settingsRepo, clock: clock}
}

// GetPunchStatus returns the last punch type, the allowed next punches and
// today's worked time.
func (h *AttendanceHandler) GetPunchStatus(ctx context.Context, actorID, userID string) (*PunchStatusDTO, error) {
	logs, err := h.userLogs(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	st := attendance.CurrentStatus(logs, h.clock.now(), h.clock.location())
	return &PunchStatusDTO{Status: st, WorkedTodayFormatted: attendance.FormatHours(st.WorkedToday)}, nil
}

// ListLogs returns filtered logs, newest first, each with its deviation.
func (h *AttendanceHandler) ListLogs(ctx context.Context, q LogsQuery) ([]LogView, error) {
	logs, err := h.userLogs(ctx, q.ActorID, q.UserID)
	if err != nil {
		return nil, err
	}
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_logs: settings: %w", err)
	}
	loc := h.clock.location()
	filtered := q.Filter.Apply(logs, loc)
	out := make([]LogView, len(filtered))
	for i, l := range filtered {
		out[i] = LogView{TimeLog: l, Deviation: attendance.DeviationOf(l, cfg, loc)}
	}
	return out, nil
}

// GetWorkedHours returns daily summaries with deviations and the total for
// the logs matching the filter's date range.
func (h *AttendanceHandler) GetWorkedHours(ctx context.Context, q LogsQuery) (*WorkedHoursDTO, error) {
	logs, err := h.userLogs(ctx, q.ActorID, q.UserID)
	if err != nil {
		return nil, err
	}
	cfg, err := h.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("worked_hours: settings: %w", err)
	}
	loc := h.clock.location()
	ranged := attendance.Filter{Start: q.Filter.Start, End: q.Filter.End}.Apply(logs, loc)
	return summarize(ranged, cfg, loc), nil
}

func summarize(logs []attendance.TimeLog, cfg settings.CompanySettings, loc *time.Location) *WorkedHoursDTO {
	days := attendance.DailySummaries(logs, loc)
	attendance.AnnotateDeviations(days, cfg, loc)
	var total time.Duration
	for _, d := range days {
		total += d.Worked
	}
	return &WorkedHoursDTO{Days: days, Total: total, TotalFormatted: attendance.FormatHours(total)}
}

func (h *AttendanceHandler) userLogs(ctx context.Context, actorID, userID string) ([]attendance.TimeLog, error) {
	if _, err := access.SelfOrAdmin(ctx, h.users, actorID, userID); err != nil {
		return nil, err
	}
	if _, err := h.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	logs, err := h.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load logs: %w", err)
	}
	return logs, nil
}
