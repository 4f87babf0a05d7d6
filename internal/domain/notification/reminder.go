package notification

import (
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// DefaultReminderHour is the local hour from which missing exits are reminded.
const DefaultReminderHour = 18

// ShouldRemind reports whether a user with these logs needs an exit reminder
// at now: it is at or past cutoffHour local time, and today has an ENTRY
// but no EXIT. Logs from other days are ignored.
func ShouldRemind(now time.Time, logs []attendance.TimeLog, cutoffHour int, loc *time.Location) bool {
	if now.In(locOrDefault(loc)).Hour() < cutoffHour {
		return false
	}
	var hasEntry, hasExit bool
	for _, l := range logs {
		if !timeutil.SameDay(l.Timestamp, now, loc) {
			continue
		}
		switch l.Type {
		case attendance.LogEntry:
			hasEntry = true
		case attendance.LogExit:
			hasExit = true
		}
	}
	return hasEntry && !hasExit
}

func locOrDefault(loc *time.Location) *time.Location {
	if loc == nil {
		return timeutil.SaoPauloTZ
	}
	return loc
}
