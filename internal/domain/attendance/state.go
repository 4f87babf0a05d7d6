package attendance

import (
	"sort"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// SortNewestFirst orders logs by timestamp, most recent first. Ties keep
// their input order.
func SortNewestFirst(logs []TimeLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}

// SortOldestFirst orders logs by timestamp, oldest first.
func SortOldestFirst(logs []TimeLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp.Before(logs[j].Timestamp)
	})
}

// LastType returns the type of the most recent log. With no logs the user
// is considered out, so the result is EXIT.
func LastType(logs []TimeLog) LogType {
	if len(logs) == 0 {
		return LogExit
	}
	latest := logs[0]
	for _, l := range logs[1:] {
		if l.Timestamp.After(latest.Timestamp) {
			latest = l
		}
	}
	return latest.Type
}

// Allowed returns the punch types that may follow last.
func Allowed(last LogType) map[LogType]bool {
	return map[LogType]bool{
		LogEntry:      last != LogEntry && last != LogLunchStart && last != LogLunchEnd,
		LogLunchStart: last == LogEntry,
		LogLunchEnd:   last == LogLunchStart,
		LogExit:       last != LogExit && last != LogLunchStart,
	}
}

// AllowedList is Allowed as an ordered slice.
func AllowedList(last LogType) []LogType {
	allowed := Allowed(last)
	out := make([]LogType, 0, len(AllLogTypes))
	for _, t := range AllLogTypes {
		if allowed[t] {
			out = append(out, t)
		}
	}
	return out
}

// IsWorkDayFinished reports whether an EXIT was punched on the local day of now.
func IsWorkDayFinished(logs []TimeLog, now time.Time, loc *time.Location) bool {
	for _, l := range logs {
		if l.Type == LogExit && timeutil.SameDay(l.Timestamp, now, loc) {
			return true
		}
	}
	return false
}

// CanPunch checks whether a punch of type t is legal at now.
func CanPunch(logs []TimeLog, t LogType, now time.Time, loc *time.Location) error {
	if !t.IsValid() {
		return shared.ErrInvalidLogType
	}
	if IsWorkDayFinished(logs, now, loc) {
		return shared.ErrWorkDayFinished
	}
	if !Allowed(LastType(logs))[t] {
		return shared.ErrPunchNotAllowed
	}
	return nil
}

// Status is a snapshot of where a user stands in the punch sequence.
type Status struct {
	LastType    LogType       `json:"lastType"`
	Allowed     []LogType     `json:"allowed"`
	DayFinished bool          `json:"dayFinished"`
	WorkedToday time.Duration `json:"workedToday"`
}

// CurrentStatus computes the punch status of a user at now.
func CurrentStatus(logs []TimeLog, now time.Time, loc *time.Location) Status {
	last := LastType(logs)
	st := Status{
		LastType:    last,
		DayFinished: IsWorkDayFinished(logs, now, loc),
	}
	if st.DayFinished {
		st.Allowed = []LogType{}
	} else {
		st.Allowed = AllowedList(last)
	}

	today := make([]TimeLog, 0, 4)
	for _, l := range logs {
		if timeutil.SameDay(l.Timestamp, now, loc) {
			today = append(today, l)
		}
	}
	st.WorkedToday = TotalWorked(today, loc)
	return st
}
