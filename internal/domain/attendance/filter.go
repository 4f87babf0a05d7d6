package attendance

import (
	"strings"
	"time"

	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// TypeAll matches every log type in a Filter.
const TypeAll = "ALL"

// Filter narrows a log list. Start and End are YYYY-MM-DD days, both
// inclusive; empty means unbounded. Days are taken in the clinic's zone,
// not UTC, so a punch at 22:30 in São Paulo (01:30Z next day) belongs to
// the day it was recorded on.
type Filter struct {
	Start string
	End   string
	Type  string
}

// Matches reports whether l passes the filter.
func (f Filter) Matches(l TimeLog, loc *time.Location) bool {
	day := timeutil.DayKey(l.Timestamp, loc)
	if f.Start != "" && day < f.Start {
		return false
	}
	if f.End != "" && day > f.End {
		return false
	}
	typ := strings.ToUpper(strings.TrimSpace(f.Type))
	if typ != "" && typ != TypeAll && LogType(typ) != l.Type {
		return false
	}
	return true
}

// Apply returns the matching logs, newest first.
func (f Filter) Apply(logs []TimeLog, loc *time.Location) []TimeLog {
	out := make([]TimeLog, 0, len(logs))
	for _, l := range logs {
		if f.Matches(l, loc) {
			out = append(out, l)
		}
	}
	SortNewestFirst(out)
	return out
}
