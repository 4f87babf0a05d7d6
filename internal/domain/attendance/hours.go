package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// DaySummary is the punch picture of one local calendar day.
type DaySummary struct {
	Day        string     `json:"day"`
	Entry      *time.Time `json:"entry,omitempty"`
	LunchStart *time.Time `json:"lunchStart,omitempty"`
	LunchEnd   *time.Time `json:"lunchEnd,omitempty"`
	Exit       *time.Time `json:"exit,omitempty"`

	// Worked is zero unless both Entry and Exit exist and the result is positive.
	Worked time.Duration `json:"worked"`

	EntryDeviation *Deviation `json:"entryDeviation,omitempty"`
	ExitDeviation  *Deviation `json:"exitDeviation,omitempty"`
}

// Complete reports whether the day has both an entry and an exit.
func (d DaySummary) Complete() bool {
	return d.Entry != nil && d.Exit != nil
}

// DailySummaries groups logs by local day, oldest day first. Within each day
// the chronologically first punch of each type is used, so the result does
// not depend on the input order.
func DailySummaries(logs []TimeLog, loc *time.Location) []DaySummary {
	sorted := make([]TimeLog, len(logs))
	copy(sorted, logs)
	SortOldestFirst(sorted)

	byDay := make(map[string]*DaySummary)
	for i := range sorted {
		l := sorted[i]
		key := timeutil.DayKey(l.Timestamp, loc)
		d, ok := byDay[key]
		if !ok {
			d = &DaySummary{Day: key}
			byDay[key] = d
		}
		ts := l.Timestamp
		switch l.Type {
		case LogEntry:
			if d.Entry == nil {
				d.Entry = &ts
			}
		case LogLunchStart:
			if d.LunchStart == nil {
				d.LunchStart = &ts
			}
		case LogLunchEnd:
			if d.LunchEnd == nil {
				d.LunchEnd = &ts
			}
		case LogExit:
			if d.Exit == nil {
				d.Exit = &ts
			}
		}
	}

	out := make([]DaySummary, 0, len(byDay))
	for _, d := range byDay {
		d.Worked = workedOn(*d)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func workedOn(d DaySummary) time.Duration {
	if !d.Complete() {
		return 0
	}
	worked := d.Exit.Sub(*d.Entry)
	if d.LunchStart != nil && d.LunchEnd != nil {
		worked -= d.LunchEnd.Sub(*d.LunchStart)
	}
	if worked <= 0 {
		return 0
	}
	return worked
}

// TotalWorked sums the worked time of every complete day.
func TotalWorked(logs []TimeLog, loc *time.Location) time.Duration {
	var total time.Duration
	for _, d := range DailySummaries(logs, loc) {
		total += d.Worked
	}
	return total
}

// FormatHours renders a duration as "Xh MMm". Seconds are dropped.
func FormatHours(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}
