package attendance

import (
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// ToleranceMinutes is how far a punch may drift from the schedule unflagged.
const ToleranceMinutes = 5

// DeviationStatus classifies a schedule deviation.
type DeviationStatus string

const (
	DeviationLate  DeviationStatus = "late"
	DeviationEarly DeviationStatus = "early"
)

// Deviation describes a late entry or an early exit.
type Deviation struct {
	Status  DeviationStatus `json:"status"`
	Minutes int             `json:"minutes"`
	Label   string          `json:"label"`
}

// DeviationOf compares a punch with the schedule. Only entries and exits can
// deviate; nil means on time. A schedule that does not parse yields nil.
func DeviationOf(l TimeLog, s settings.CompanySettings, loc *time.Location) *Deviation {
	at := timeutil.MinutesOfDay(l.Timestamp, loc)
	switch l.Type {
	case LogEntry:
		start, err := s.WorkStartMinutes()
		if err != nil {
			return nil
		}
		if diff := at - start; diff > ToleranceMinutes {
			return &Deviation{Status: DeviationLate, Minutes: diff, Label: fmt.Sprintf("+%dm", diff)}
		}
	case LogExit:
		end, err := s.WorkEndMinutes()
		if err != nil {
			return nil
		}
		if diff := end - at; diff > ToleranceMinutes {
			return &Deviation{Status: DeviationEarly, Minutes: diff, Label: fmt.Sprintf("-%dm", diff)}
		}
	}
	return nil
}

// AnnotateDeviations fills the entry and exit deviations of each summary.
func AnnotateDeviations(days []DaySummary, s settings.CompanySettings, loc *time.Location) {
	for i := range days {
		if days[i].Entry != nil {
			days[i].EntryDeviation = DeviationOf(TimeLog{Type: LogEntry, Timestamp: *days[i].Entry}, s, loc)
		}
		if days[i].Exit != nil {
			days[i].ExitDeviation = DeviationOf(TimeLog{Type: LogExit, Timestamp: *days[i].Exit}, s, loc)
		}
	}
}
