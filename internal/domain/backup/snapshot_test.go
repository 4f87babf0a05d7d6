package backup

import (
	"testing"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	ts := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC) // 22:00 on the 4th in São Paulo
	assert.Equal(t, "backup_pontocerto_2024-03-04.json", FileName(ts, timeutil.SaoPauloTZ))
}

func TestParse_RoundTrip(t *testing.T) {
	s := settings.Defaults()
	s.WorkStart = "07:30"
	snap := Snapshot{
		Version:    CurrentVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Users:      []staff.User{staff.DefaultAdmin()},
		Logs: []attendance.TimeLog{{
			ID: "l1", UserID: "1", Type: attendance.LogEntry, Timestamp: time.Now().UTC().Truncate(time.Second),
		}},
		Settings: s,
	}
	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"users\"")

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "07:30", got.Settings.WorkStart)
	assert.Len(t, got.Users, 1)
	assert.Len(t, got.Logs, 1)
	assert.Equal(t, "admin", got.Users[0].Password)
}

func TestParse_Rejects(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	assert.True(t, shared.IsValidation(err))
	assert.ErrorIs(t, err, shared.ErrInvalidBackup)

	_, err = Parse([]byte(`{"logs": []}`))
	assert.ErrorIs(t, err, shared.ErrInvalidBackup)

	_, err = Parse([]byte(`{"users": [{"name": "sem id"}]}`))
	assert.ErrorIs(t, err, shared.ErrInvalidBackup)
}

func TestParse_FillsDefaults(t *testing.T) {
	got, err := Parse([]byte(`{"users": [], "settings": {"workStart": "99:00"}}`))
	require.NoError(t, err)
	assert.Empty(t, got.Users)
	assert.NotNil(t, got.Logs)
	assert.Equal(t, settings.Defaults(), got.Settings)
}
