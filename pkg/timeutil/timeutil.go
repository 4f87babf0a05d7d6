// Package timeutil provides clinic-local calendar helpers.
// Attendance rules group punches by the local calendar day of the clinic,
// so every helper takes the location explicitly.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// SaoPauloTZ is the Brasília time zone (UTC-3, no DST).
// Brazil abolished DST in 2019, so this is constant year-round.
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Common date/time formats.
const (
	// FormatDate is the ISO day key format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatClock is the schedule clock format (HH:MM).
	FormatClock = "15:04"
	// FormatBRDate is the Brazilian date format (DD/MM/YYYY).
	FormatBRDate = "02/01/2006"
	// FormatBRTime is the Brazilian time format with seconds.
	FormatBRTime = "15:04:05"
	// FormatBRDateTime is the Brazilian datetime format.
	FormatBRDateTime = "02/01/2006 15:04:05"
)

// LoadLocation resolves an IANA zone name and falls back to SaoPauloTZ
// when the zone database is unavailable.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return SaoPauloTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return SaoPauloTZ
	}
	return loc
}

func orDefault(loc *time.Location) *time.Location {
	if loc == nil {
		return SaoPauloTZ
	}
	return loc
}

// DayKey returns the local calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(orDefault(loc)).Format(FormatDate)
}

// SameDay reports whether a and b fall on the same local calendar day.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return DayKey(a, loc) == DayKey(b, loc)
}

// StartOfDay returns local midnight of the day containing t.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(orDefault(loc))
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, local.Location())
}

// EndOfDay returns the last nanosecond of the local day containing t.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	return StartOfDay(t, loc).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// MinutesOfDay returns hour*60+minute of t in local time. Seconds are dropped.
func MinutesOfDay(t time.Time, loc *time.Location) int {
	local := t.In(orDefault(loc))
	return local.Hour()*60 + local.Minute()
}

// ParseDay parses a YYYY-MM-DD day in the given location.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate, strings.TrimSpace(value), orDefault(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid day %q: %w", value, err)
	}
	return t, nil
}

// ParseLocalDateTime combines a YYYY-MM-DD day and an HH:MM clock into an
// instant in the given location.
func ParseLocalDateTime(day, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(FormatDate+" "+FormatClock, strings.TrimSpace(day)+" "+strings.TrimSpace(clock), orDefault(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date/time %q %q: %w", day, clock, err)
	}
	return t, nil
}

// FormatBR formats t in local time with a Brazilian layout.
func FormatBR(t time.Time, layout string, loc *time.Location) string {
	return t.In(orDefault(loc)).Format(layout)
}
