// Package attendance contains the punch rules engine: which punch may come
// next, how many hours a set of punches adds up to, and how far a punch
// deviates from the clinic schedule. Everything here is pure and takes the
// clinic location explicitly.
package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/google/uuid"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// LogType is the kind of punch.
type LogType string

const (
	LogEntry      LogType = "ENTRY"
	LogLunchStart LogType = "LUNCH_START"
	LogLunchEnd   LogType = "LUNCH_END"
	LogExit       LogType = "EXIT"
)

// AllLogTypes lists the punch types in work-day order.
var AllLogTypes = []LogType{LogEntry, LogLunchStart, LogLunchEnd, LogExit}

// ParseLogType converts a string into a LogType. Case and surrounding
// whitespace are ignored.
func ParseLogType(value string) (LogType, error) {
	t := LogType(strings.ToUpper(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", shared.WrapError("attendance", "ParseLogType", shared.ErrInvalidInput,
			fmt.Sprintf("unknown log type %q", value), shared.ErrInvalidLogType)
	}
	return t, nil
}

// IsValid reports whether t is one of the four punch types.
func (t LogType) IsValid() bool {
	switch t {
	case LogEntry, LogLunchStart, LogLunchEnd, LogExit:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t LogType) String() string {
	return string(t)
}

// ReceiptLabel is the label used in punch receipts.
func (t LogType) ReceiptLabel() string {
	switch t {
	case LogEntry:
		return "Entrada"
	case LogLunchStart:
		return "Início de Intervalo"
	case LogLunchEnd:
		return "Fim de Intervalo"
	case LogExit:
		return "Saída"
	default:
		return string(t)
	}
}

// ReportLabel is the label used in timesheet exports.
func (t LogType) ReportLabel() string {
	switch t {
	case LogEntry:
		return "Entrada"
	case LogLunchStart:
		return "Saída Almoço"
	case LogLunchEnd:
		return "Volta Almoço"
	case LogExit:
		return "Saída"
	default:
		return string(t)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// GeoLocation is the device position captured at punch time.
type GeoLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// MapsLink returns a Google Maps link for the position.
func (g GeoLocation) MapsLink() string {
	return fmt.Sprintf("https://www.google.com/maps?q=%v,%v", g.Latitude, g.Longitude)
}

// Coordinates formats the position to five decimals, as shown in reports.
func (g GeoLocation) Coordinates() string {
	return fmt.Sprintf("%.5f, %.5f", g.Latitude, g.Longitude)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// TimeLog is a single punch.
type TimeLog struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Timestamp time.Time    `json:"timestamp"`
	Type      LogType      `json:"type"`
	Edited    bool         `json:"edited"`
	Notes     string       `json:"notes,omitempty"`
	Location  *GeoLocation `json:"location,omitempty"`
}

// NewTimeLog builds a fresh, unedited punch with a new ID.
func NewTimeLog(userID string, t LogType, at time.Time, notes string, loc *GeoLocation) (*TimeLog, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.ErrUserNotFound
	}
	if !t.IsValid() {
		return nil, shared.ErrInvalidLogType
	}
	if at.IsZero() {
		return nil, shared.ErrInvalidTimestamp
	}
	return &TimeLog{
		ID:        uuid.NewString(),
		UserID:    userID,
		Timestamp: at,
		Type:      t,
		Notes:     strings.TrimSpace(notes),
		Location:  loc,
	}, nil
}

// Correct moves the punch to a new instant and marks it as edited.
func (l *TimeLog) Correct(at time.Time) error {
	if at.IsZero() {
		return shared.ErrInvalidTimestamp
	}
	l.Timestamp = at
	l.Edited = true
	return nil
}
