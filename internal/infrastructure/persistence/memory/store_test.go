package memory

import (
	"context"
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	users := NewStore().Users()

	admin := staff.DefaultAdmin()
	require.NoError(t, users.Save(ctx, &admin))
	n, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := users.GetByID(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Administrador", got.Name)

	_, err = users.GetByID(ctx, "2")
	assert.True(t, shared.IsNotFound(err))

	require.NoError(t, users.Delete(ctx, "1"))
	assert.ErrorIs(t, users.Delete(ctx, "1"), shared.ErrUserNotFound)
}

func TestLogs_NewestFirstAndRange(t *testing.T) {
	ctx := context.Background()
	logs := NewStore().Logs()
	base := time.Date(2024, 3, 4, 11, 0, 0, 0, time.UTC)

	for i, typ := range []attendance.LogType{attendance.LogEntry, attendance.LogLunchStart, attendance.LogExit} {
		l := attendance.TimeLog{ID: string(typ), UserID: "u", Type: typ, Timestamp: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, logs.Save(ctx, &l))
	}
	other := attendance.TimeLog{ID: "x", UserID: "v", Type: attendance.LogEntry, Timestamp: base}
	require.NoError(t, logs.Save(ctx, &other))

	got, err := logs.ListByUser(ctx, "u")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, attendance.LogExit, got[0].Type)

	got, err = logs.ListBetween(ctx, "u", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	all, err := logs.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	assert.ErrorIs(t, logs.Delete(ctx, "nope"), shared.ErrLogNotFound)
}

func TestSettings_DefaultsUntilSaved(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Settings()

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)

	got.WorkStart = "07:00"
	require.NoError(t, repo.Save(ctx, got))
	again, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:00", again.WorkStart)
}

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	box := NewStore().Outbox()
	now := time.Now()

	for i, to := range []string{"a@x.com", "b@x.com", "A@x.com"} {
		e, err := notification.NewEmail(to, "s", "b", now.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, box.Append(ctx, e))
	}

	list, err := box.List(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "A@x.com", list[0].To)

	n, err := box.MarkAllAsRead(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := box.List(ctx, "")
	require.NoError(t, err)
	assert.False(t, all[1].Read)

	n, err = box.DeleteOlderThan(ctx, now.Add(30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = box.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestReminderLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewStore().Reminders()

	first, err := ledger.MarkSent(ctx, "u", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ledger.MarkSent(ctx, "u", "2024-03-04")
	require.NoError(t, err)
	assert.False(t, again)

	next, err := ledger.MarkSent(ctx, "u", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, next)
	require.NoError(t, ledger.Release(ctx, "u", "2024-03-04"))
	retry, err := ledger.MarkSent(ctx, "u", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, retry, "a released mark can be taken again")
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	st := NewStore()
	old := staff.User{ID: "old", Name: "Old"}
	require.NoError(t, st.Users().Save(ctx, &old))

	cfg := settings.Defaults()
	cfg.WorkEnd = "18:00"
	require.NoError(t, st.Replace(ctx, &backup.Snapshot{
		Users:    []staff.User{staff.DefaultAdmin()},
		Logs:     []attendance.TimeLog{{ID: "l", UserID: "1", Type: attendance.LogEntry, Timestamp: time.Now()}},
		Settings: cfg,
	}))

	_, err := st.Users().GetByID(ctx, "old")
	assert.True(t, shared.IsNotFound(err))
	all, _ := st.Logs().ListAll(ctx)
	assert.Len(t, all, 1)
	got, _ := st.Settings().Get(ctx)
	assert.Equal(t, "18:00", got.WorkEnd)
}
