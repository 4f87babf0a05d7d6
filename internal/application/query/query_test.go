package query

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/memory"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loc = timeutil.SaoPauloTZ

func seed(t *testing.T) (*memory.Store, Clock) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	admin := staff.DefaultAdmin()
	emp := staff.User{ID: "e1", Name: "Ana Lima", Email: "ana@interno.com", Password: "1234", Role: staff.RoleEmployee}
	require.NoError(t, store.Users().Save(ctx, &admin))
	require.NoError(t, store.Users().Save(ctx, &emp))

	add := func(id string, typ attendance.LogType, day, clock string) {
		ts, err := timeutil.ParseLocalDateTime(day, clock, loc)
		require.NoError(t, err)
		l := attendance.TimeLog{ID: id, UserID: "e1", Type: typ, Timestamp: ts}
		require.NoError(t, store.Logs().Save(ctx, &l))
	}
	add("a", attendance.LogEntry, "2024-03-04", "08:20")
	add("b", attendance.LogLunchStart, "2024-03-04", "12:00")
	add("c", attendance.LogLunchEnd, "2024-03-04", "13:00")
	add("d", attendance.LogExit, "2024-03-04", "17:00")
	add("e", attendance.LogEntry, "2024-03-05", "08:00")

	now, _ := timeutil.ParseLocalDateTime("2024-03-05", "10:00", loc)
	return store, Clock{Location: loc, Now: func() time.Time { return now }}
}

func TestAuthenticate(t *testing.T) {
	store, _ := seed(t)
	h := NewAuthenticateHandler(store.Users(), nil)

	u, err := h.Handle(context.Background(), AuthenticateQuery{Identifier: "ana", Credential: "1234"})
	require.NoError(t, err)
	assert.Equal(t, "e1", u.ID)
	assert.Empty(t, u.Password)

	_, err = h.Handle(context.Background(), AuthenticateQuery{Identifier: "ana", Credential: "x"})
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestUsers(t *testing.T) {
	store, _ := seed(t)
	h := NewUsersHandler(store.Users())
	ctx := context.Background()

	list, err := h.ListUsers(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.Empty(t, u.Password)
	}

	_, err = h.ListUsers(ctx, "e1")
	assert.True(t, shared.IsForbidden(err))

	u, err := h.GetUser(ctx, "e1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", u.Name)
}

func TestPunchStatus(t *testing.T) {
	store, clock := seed(t)
	h := NewAttendanceHandler(store.Users(), store.Logs(), store.Settings(), clock)

	st, err := h.GetPunchStatus(context.Background(), "e1", "e1")
	require.NoError(t, err)
	assert.Equal(t, attendance.LogEntry, st.LastType)
	assert.False(t, st.DayFinished)
	assert.Equal(t, "0h 00m", st.WorkedTodayFormatted)
}

func TestListLogs(t *testing.T) {
	store, clock := seed(t)
	h := NewAttendanceHandler(store.Users(), store.Logs(), store.Settings(), clock)

	views, err := h.ListLogs(context.Background(), LogsQuery{ActorID: "1", UserID: "e1", Filter: attendance.Filter{End: "2024-03-04"}})
	require.NoError(t, err)
	require.Len(t, views, 4)
	assert.Equal(t, "d", views[0].ID)
	require.NotNil(t, views[3].Deviation)
	assert.Equal(t, "+20m", views[3].Deviation.Label)

	data, err := json.Marshal(views[3])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"deviation":{"status":"late"`)
	assert.Contains(t, string(data), `"type":"ENTRY"`)

	_, err = h.ListLogs(context.Background(), LogsQuery{ActorID: "e1", UserID: "1"})
	assert.True(t, shared.IsForbidden(err))
}

func TestWorkedHours(t *testing.T) {
	store, clock := seed(t)
	h := NewAttendanceHandler(store.Users(), store.Logs(), store.Settings(), clock)

	res, err := h.GetWorkedHours(context.Background(), LogsQuery{ActorID: "e1", UserID: "e1"})
	require.NoError(t, err)
	require.Len(t, res.Days, 2)
	assert.Equal(t, "7h 40m", res.TotalFormatted)
	require.NotNil(t, res.Days[0].EntryDeviation)
}

func TestListNotifications(t *testing.T) {
	store, _ := seed(t)
	ctx := context.Background()
	for _, to := range []string{"ana@interno.com", "admin@empresa.com"} {
		e, _ := notification.NewEmail(to, "s", "b", time.Now())
		require.NoError(t, store.Outbox().Append(ctx, e))
	}
	h := NewListNotificationsHandler(store.Users(), store.Outbox())

	mine, err := h.Handle(ctx, "e1", "")
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := h.Handle(ctx, "1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestExportBackup(t *testing.T) {
	store, clock := seed(t)
	h := NewExportBackupHandler(store.Users(), store.Logs(), store.Settings(), clock)

	res, err := h.Handle(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "backup_pontocerto_2024-03-05.json", res.FileName)

	snap, err := backup.Parse(res.Data)
	require.NoError(t, err)
	assert.Len(t, snap.Users, 2)
	assert.Len(t, snap.Logs, 5)

	_, err = h.Handle(context.Background(), "e1")
	assert.True(t, shared.IsForbidden(err))
}

func TestBuildTimesheet(t *testing.T) {
	store, clock := seed(t)
	h := NewBuildTimesheetHandler(store.Users(), store.Logs(), store.Settings(), clock)

	ts, err := h.Handle(context.Background(), LogsQuery{ActorID: "e1", UserID: "e1"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", ts.User.Name)
	assert.Empty(t, ts.User.Password)
	assert.Len(t, ts.Logs, 5)
	assert.Equal(t, "7h 40m", ts.Hours.TotalFormatted)
}
