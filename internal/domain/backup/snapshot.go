// Package backup defines the full-data snapshot used to export and restore
// the clinic's users, time logs and settings.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/pkg/timeutil"
)

// CurrentVersion is written into every exported snapshot.
const CurrentVersion = 1

// Snapshot is the whole data set.
type Snapshot struct {
	Version    int                      `json:"version"`
	ExportedAt time.Time                `json:"exportedAt"`
	Users      []staff.User             `json:"users"`
	Logs       []attendance.TimeLog     `json:"logs"`
	Settings   settings.CompanySettings `json:"settings"`
}

// FileName is the suggested download name for a snapshot taken at t.
func FileName(t time.Time, loc *time.Location) string {
	return fmt.Sprintf("backup_pontocerto_%s.json", timeutil.DayKey(t, loc))
}

// Marshal renders the snapshot as indented JSON.
func (s Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Parse decodes and checks a snapshot. Invalid JSON or a missing users list
// yields shared.ErrInvalidBackup. Missing logs mean none; missing or invalid
// settings fall back to the defaults.
func Parse(data []byte) (*Snapshot, error) {
	var raw struct {
		Version    int                       `json:"version"`
		ExportedAt time.Time                 `json:"exportedAt"`
		Users      *[]staff.User             `json:"users"`
		Logs       []attendance.TimeLog      `json:"logs"`
		Settings   *settings.CompanySettings `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, shared.WrapError("backup", "Parse", shared.ErrInvalidFormat, "invalid backup file",
			fmt.Errorf("%w: %v", shared.ErrInvalidBackup, err))
	}
	if raw.Users == nil {
		return nil, shared.ErrInvalidBackup
	}

	snap := &Snapshot{
		Version:    raw.Version,
		ExportedAt: raw.ExportedAt,
		Users:      *raw.Users,
		Logs:       raw.Logs,
		Settings:   settings.Defaults(),
	}
	if snap.Logs == nil {
		snap.Logs = []attendance.TimeLog{}
	}
	if raw.Settings != nil && raw.Settings.Validate() == nil {
		snap.Settings = *raw.Settings
	}
	for _, u := range snap.Users {
		if u.ID == "" {
			return nil, shared.WrapError("backup", "Parse", shared.ErrInvalidFormat, "user without id", shared.ErrInvalidBackup)
		}
	}
	return snap, nil
}

// Store replaces the whole data set in one step. Implementations must leave
// the previous data untouched when Replace fails.
type Store interface {
	Replace(ctx context.Context, snap *Snapshot) error
}
