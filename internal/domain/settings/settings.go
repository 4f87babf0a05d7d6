// Package settings holds the clinic shift schedule and mail relay settings.
package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
)

// Default schedule boundaries.
const (
	DefaultWorkStart  = "08:00"
	DefaultWorkEnd    = "17:00"
	DefaultLunchStart = "12:00"
	DefaultLunchEnd   = "13:00"
)

// CompanySettings is the schedule every deviation check compares against.
// Clock values are "HH:MM" in the clinic's local time.
type CompanySettings struct {
	WorkStart  string `json:"workStart"`
	WorkEnd    string `json:"workEnd"`
	LunchStart string `json:"lunchStart"`
	LunchEnd   string `json:"lunchEnd"`

	// EmailJS relay configuration. All three must be set for the relay to be used.
	EmailJSServiceID  string `json:"emailJsServiceId,omitempty"`
	EmailJSTemplateID string `json:"emailJsTemplateId,omitempty"`
	EmailJSPublicKey  string `json:"emailJsPublicKey,omitempty"`
}

// Defaults returns the schedule used when nothing is stored.
func Defaults() CompanySettings {
	return CompanySettings{
		WorkStart:  DefaultWorkStart,
		WorkEnd:    DefaultWorkEnd,
		LunchStart: DefaultLunchStart,
		LunchEnd:   DefaultLunchEnd,
	}
}

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, shared.ErrInvalidClock
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, shared.ErrInvalidClock
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, shared.ErrInvalidClock
	}
	return h*60 + m, nil
}

// WorkStartMinutes returns WorkStart as minutes of day.
func (s CompanySettings) WorkStartMinutes() (int, error) { return ParseClock(s.WorkStart) }

// WorkEndMinutes returns WorkEnd as minutes of day.
func (s CompanySettings) WorkEndMinutes() (int, error) { return ParseClock(s.WorkEnd) }

// Validate checks clock formats and boundary order.
func (s CompanySettings) Validate() error {
	clocks := []string{s.WorkStart, s.WorkEnd, s.LunchStart, s.LunchEnd}
	minutes := make([]int, len(clocks))
	for i, c := range clocks {
		m, err := ParseClock(c)
		if err != nil {
			return shared.WrapError("settings", "Validate", shared.ErrInvalidFormat, "invalid clock "+strconv.Quote(c), err)
		}
		minutes[i] = m
	}
	if minutes[0] >= minutes[1] || minutes[2] >= minutes[3] {
		return shared.ErrInvalidSchedule
	}
	return nil
}

// RelayConfigured reports whether the EmailJS relay has all its identifiers.
func (s CompanySettings) RelayConfigured() bool {
	return s.EmailJSServiceID != "" && s.EmailJSTemplateID != "" && s.EmailJSPublicKey != ""
}

// Repository persists the single settings record.
type Repository interface {
	// Get returns the stored settings, or Defaults() when none are stored.
	Get(ctx context.Context) (CompanySettings, error)

	// Save replaces the stored settings.
	Save(ctx context.Context, s CompanySettings) error
}
