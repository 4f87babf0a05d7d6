package attendance

import (
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = timeutil.SaoPauloTZ

func at(day, clock string) time.Time {
	t, err := timeutil.ParseLocalDateTime(day, clock, loc)
	if err != nil {
		panic(err)
	}
	return t
}

func punch(t LogType, day, clock string) TimeLog {
	return TimeLog{ID: day + clock + string(t), UserID: "u1", Type: t, Timestamp: at(day, clock)}
}

func TestParseLogType(t *testing.T) {
	lt, err := ParseLogType(" lunch_start ")
	require.NoError(t, err)
	assert.Equal(t, LogLunchStart, lt)

	_, err = ParseLogType("BREAK")
	assert.ErrorIs(t, err, shared.ErrInvalidLogType)
	assert.True(t, shared.IsValidation(err))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Início de Intervalo", LogLunchStart.ReceiptLabel())
	assert.Equal(t, "Fim de Intervalo", LogLunchEnd.ReceiptLabel())
	assert.Equal(t, "Saída Almoço", LogLunchStart.ReportLabel())
	assert.Equal(t, "Volta Almoço", LogLunchEnd.ReportLabel())
	assert.Equal(t, "Saída", LogExit.ReportLabel())
}

func TestGeoLocation(t *testing.T) {
	g := GeoLocation{Latitude: -23.5505, Longitude: -46.6333}
	assert.Equal(t, "https://www.google.com/maps?q=-23.5505,-46.6333", g.MapsLink())
	assert.Equal(t, "-23.55050, -46.63330", g.Coordinates())
}

func TestNewTimeLog(t *testing.T) {
	l, err := NewTimeLog("u1", LogEntry, at("2024-03-04", "08:00"), "  ok  ", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, l.ID)
	assert.Equal(t, "ok", l.Notes)
	assert.False(t, l.Edited)

	_, err = NewTimeLog("u1", "NAP", time.Now(), "", nil)
	assert.ErrorIs(t, err, shared.ErrInvalidLogType)

	require.NoError(t, l.Correct(at("2024-03-04", "08:10")))
	assert.True(t, l.Edited)
	assert.ErrorIs(t, l.Correct(time.Time{}), shared.ErrInvalidTimestamp)
}

func TestLastType(t *testing.T) {
	assert.Equal(t, LogExit, LastType(nil))

	logs := []TimeLog{
		punch(LogEntry, "2024-03-04", "08:00"),
		punch(LogLunchEnd, "2024-03-04", "13:00"),
		punch(LogLunchStart, "2024-03-04", "12:00"),
	}
	assert.Equal(t, LogLunchEnd, LastType(logs))
}

func TestAllowed(t *testing.T) {
	tests := []struct {
		last LogType
		want []LogType
	}{
		{LogExit, []LogType{LogEntry}},
		{LogEntry, []LogType{LogLunchStart, LogExit}},
		{LogLunchStart, []LogType{LogLunchEnd}},
		{LogLunchEnd, []LogType{LogExit}},
	}
	for _, tt := range tests {
		t.Run(string(tt.last), func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedList(tt.last))
		})
	}
}

func TestCanPunch(t *testing.T) {
	now := at("2024-03-04", "12:00")

	assert.NoError(t, CanPunch(nil, LogEntry, now, loc))
	assert.ErrorIs(t, CanPunch(nil, LogExit, now, loc), shared.ErrPunchNotAllowed)

	logs := []TimeLog{punch(LogEntry, "2024-03-04", "08:00")}
	assert.NoError(t, CanPunch(logs, LogLunchStart, now, loc))
	assert.ErrorIs(t, CanPunch(logs, LogEntry, now, loc), shared.ErrPunchNotAllowed)

	logs = append(logs, punch(LogExit, "2024-03-04", "11:00"))
	err := CanPunch(logs, LogEntry, now, loc)
	assert.ErrorIs(t, err, shared.ErrWorkDayFinished)
	assert.True(t, shared.IsConflict(err))

	// A previous day's exit does not block today.
	yesterday := []TimeLog{
		punch(LogEntry, "2024-03-03", "08:00"),
		punch(LogExit, "2024-03-03", "17:00"),
	}
	assert.NoError(t, CanPunch(yesterday, LogEntry, now, loc))
}

func TestIsWorkDayFinished_UsesLocalDate(t *testing.T) {
	// 23:30 local is already the next day in UTC.
	exit := punch(LogExit, "2024-03-04", "23:30")
	assert.True(t, IsWorkDayFinished([]TimeLog{exit}, at("2024-03-04", "23:50"), loc))
	assert.False(t, IsWorkDayFinished([]TimeLog{exit}, at("2024-03-05", "07:00"), loc))
}

func TestCurrentStatus(t *testing.T) {
	logs := []TimeLog{
		punch(LogEntry, "2024-03-04", "08:00"),
		punch(LogExit, "2024-03-04", "12:30"),
	}
	st := CurrentStatus(logs, at("2024-03-04", "13:00"), loc)
	assert.Equal(t, LogExit, st.LastType)
	assert.True(t, st.DayFinished)
	assert.Empty(t, st.Allowed)
	assert.Equal(t, 4*time.Hour+30*time.Minute, st.WorkedToday)
}

func TestDailySummaries(t *testing.T) {
	logs := []TimeLog{
		punch(LogExit, "2024-03-04", "17:00"),
		punch(LogLunchEnd, "2024-03-04", "13:00"),
		punch(LogLunchStart, "2024-03-04", "12:00"),
		punch(LogEntry, "2024-03-04", "08:00"),
		// Second entry in the same day is ignored.
		punch(LogEntry, "2024-03-04", "09:00"),
		// Incomplete day.
		punch(LogEntry, "2024-03-05", "08:00"),
		// Day without lunch.
		punch(LogEntry, "2024-03-06", "08:00"),
		punch(LogExit, "2024-03-06", "12:15"),
	}

	days := DailySummaries(logs, loc)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-04", days[0].Day)
	assert.Equal(t, 8*time.Hour, days[0].Worked)
	assert.False(t, days[1].Complete())
	assert.Zero(t, days[1].Worked)
	assert.Equal(t, 4*time.Hour+15*time.Minute, days[2].Worked)

	assert.Equal(t, 12*time.Hour+15*time.Minute, TotalWorked(logs, loc))
}

func TestTotalWorked_IgnoresNegativeDays(t *testing.T) {
	logs := []TimeLog{
		punch(LogExit, "2024-03-04", "07:00"),
		punch(LogEntry, "2024-03-04", "08:00"),
	}
	assert.Zero(t, TotalWorked(logs, loc))
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "0h 00m", FormatHours(0))
	assert.Equal(t, "8h 05m", FormatHours(8*time.Hour+5*time.Minute+59*time.Second))
	assert.Equal(t, "41h 30m", FormatHours(41*time.Hour+30*time.Minute))
	assert.Equal(t, "0h 00m", FormatHours(-time.Hour))
}

func TestDeviationOf(t *testing.T) {
	s := settings.Defaults()

	assert.Nil(t, DeviationOf(punch(LogEntry, "2024-03-04", "08:05"), s, loc))

	d := DeviationOf(punch(LogEntry, "2024-03-04", "08:06"), s, loc)
	require.NotNil(t, d)
	assert.Equal(t, DeviationLate, d.Status)
	assert.Equal(t, "+6m", d.Label)

	d = DeviationOf(punch(LogExit, "2024-03-04", "16:30"), s, loc)
	require.NotNil(t, d)
	assert.Equal(t, DeviationEarly, d.Status)
	assert.Equal(t, "-30m", d.Label)

	assert.Nil(t, DeviationOf(punch(LogExit, "2024-03-04", "18:00"), s, loc))
	assert.Nil(t, DeviationOf(punch(LogLunchStart, "2024-03-04", "14:00"), s, loc))

	s.WorkStart = "bad"
	assert.Nil(t, DeviationOf(punch(LogEntry, "2024-03-04", "10:00"), s, loc))
}

func TestAnnotateDeviations(t *testing.T) {
	days := DailySummaries([]TimeLog{
		punch(LogEntry, "2024-03-04", "08:20"),
		punch(LogExit, "2024-03-04", "17:00"),
	}, loc)
	AnnotateDeviations(days, settings.Defaults(), loc)
	require.NotNil(t, days[0].EntryDeviation)
	assert.Equal(t, 20, days[0].EntryDeviation.Minutes)
	assert.Nil(t, days[0].ExitDeviation)
}

func TestFilter(t *testing.T) {
	logs := []TimeLog{
		punch(LogEntry, "2024-03-01", "08:00"),
		punch(LogExit, "2024-03-01", "17:00"),
		punch(LogEntry, "2024-03-02", "08:00"),
		punch(LogEntry, "2024-03-03", "22:30"),
	}

	got := Filter{Start: "2024-03-02", End: "2024-03-03"}.Apply(logs, loc)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-03", timeutil.DayKey(got[0].Timestamp, loc))

	got = Filter{Type: "exit"}.Apply(logs, loc)
	require.Len(t, got, 1)
	assert.Equal(t, LogExit, got[0].Type)

	assert.Len(t, Filter{Type: TypeAll}.Apply(logs, loc), 4)
}

func TestFilter_UsesLocalDayNearMidnight(t *testing.T) {
	late := punch(LogExit, "2024-03-03", "22:30")
	require.Equal(t, "2024-03-04", late.Timestamp.UTC().Format(timeutil.FormatDate))

	assert.True(t, Filter{Start: "2024-03-03", End: "2024-03-03"}.Matches(late, loc))
	assert.False(t, Filter{Start: "2024-03-04"}.Matches(late, loc))
}
