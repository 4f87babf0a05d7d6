// Package memory provides process-local implementations of every repository.
// It backs development mode (no DATABASE_URL) and the application tests.
// Data is lost on restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/shared"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
)

// Store holds all data behind one lock.
type Store struct {
	mu        sync.RWMutex
	users     map[string]staff.User
	logs      map[string]attendance.TimeLog
	settings  *settings.CompanySettings
	emails    []notification.Email
	reminders map[string]struct{}
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[string]staff.User),
		logs:      make(map[string]attendance.TimeLog),
		reminders: make(map[string]struct{}),
	}
}

// Users returns the staff repository view.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Logs returns the time log repository view.
func (s *Store) Logs() *LogRepository { return &LogRepository{s: s} }

// Settings returns the settings repository view.
func (s *Store) Settings() *SettingsRepository { return &SettingsRepository{s: s} }

// Outbox returns the email outbox view.
func (s *Store) Outbox() *Outbox { return &Outbox{s: s} }

// Reminders returns the reminder ledger view.
func (s *Store) Reminders() *ReminderLedger { return &ReminderLedger{s: s} }

// Replace implements backup.Store. Users, logs and settings are swapped
// under one lock; the outbox is left alone.
func (s *Store) Replace(_ context.Context, snap *backup.Snapshot) error {
	users := make(map[string]staff.User, len(snap.Users))
	for _, u := range snap.Users {
		users[u.ID] = u
	}
	logs := make(map[string]attendance.TimeLog, len(snap.Logs))
	for _, l := range snap.Logs {
		logs[l.ID] = l
	}
	cfg := snap.Settings

	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = users
	s.logs = logs
	s.settings = &cfg
	return nil
}

var _ backup.Store = (*Store)(nil)

// ══════════════════════════════════════════════════════════════════════════════
// USERS
// ══════════════════════════════════════════════════════════════════════════════

// UserRepository implements staff.Repository.
type UserRepository struct{ s *Store }

var _ staff.Repository = (*UserRepository)(nil)

func (r *UserRepository) Save(_ context.Context, user *staff.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*staff.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return &u, nil
}

func (r *UserRepository) List(_ context.Context) ([]staff.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]staff.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return shared.ErrUserNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TIME LOGS
// ══════════════════════════════════════════════════════════════════════════════

// LogRepository implements attendance.Repository.
type LogRepository struct{ s *Store }

var _ attendance.Repository = (*LogRepository)(nil)

func (r *LogRepository) Save(_ context.Context, log *attendance.TimeLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs[log.ID] = *log
	return nil
}

func (r *LogRepository) GetByID(_ context.Context, id string) (*attendance.TimeLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	l, ok := r.s.logs[id]
	if !ok {
		return nil, shared.ErrLogNotFound
	}
	return &l, nil
}

func (r *LogRepository) ListByUser(_ context.Context, userID string) ([]attendance.TimeLog, error) {
	return r.collect(func(l attendance.TimeLog) bool { return l.UserID == userID }), nil
}

func (r *LogRepository) ListBetween(_ context.Context, userID string, from, to time.Time) ([]attendance.TimeLog, error) {
	return r.collect(func(l attendance.TimeLog) bool {
		return l.UserID == userID && !l.Timestamp.Before(from) && l.Timestamp.Before(to)
	}), nil
}

func (r *LogRepository) ListAll(_ context.Context) ([]attendance.TimeLog, error) {
	return r.collect(func(attendance.TimeLog) bool { return true }), nil
}

func (r *LogRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.logs[id]; !ok {
		return shared.ErrLogNotFound
	}
	delete(r.s.logs, id)
	return nil
}

func (r *LogRepository) collect(keep func(attendance.TimeLog) bool) []attendance.TimeLog {
	r.s.mu.RLock()
	out := make([]attendance.TimeLog, 0)
	for _, l := range r.s.logs {
		if keep(l) {
			out = append(out, l)
		}
	}
	r.s.mu.RUnlock()
	attendance.SortNewestFirst(out)
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// SETTINGS
// ══════════════════════════════════════════════════════════════════════════════

// SettingsRepository implements settings.Repository.
type SettingsRepository struct{ s *Store }

var _ settings.Repository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(_ context.Context) (settings.CompanySettings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.settings == nil {
		return settings.Defaults(), nil
	}
	return *r.s.settings, nil
}

func (r *SettingsRepository) Save(_ context.Context, cfg settings.CompanySettings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings = &cfg
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// OUTBOX
// ══════════════════════════════════════════════════════════════════════════════

// Outbox implements notification.Outbox. Emails are kept newest first.
type Outbox struct{ s *Store }

var _ notification.Outbox = (*Outbox)(nil)

func matchesRecipient(e notification.Email, recipient string) bool {
	return recipient == "" || strings.EqualFold(e.To, recipient)
}

func (o *Outbox) Append(_ context.Context, email *notification.Email) error {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	o.s.emails = append([]notification.Email{*email}, o.s.emails...)
	return nil
}

func (o *Outbox) List(_ context.Context, recipient string) ([]notification.Email, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	out := make([]notification.Email, 0)
	for _, e := range o.s.emails {
		if matchesRecipient(e, recipient) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (o *Outbox) MarkAllAsRead(_ context.Context, recipient string) (int, error) {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	n := 0
	for i := range o.s.emails {
		if matchesRecipient(o.s.emails[i], recipient) && !o.s.emails[i].Read {
			o.s.emails[i].Read = true
			n++
		}
	}
	return n, nil
}

func (o *Outbox) Clear(_ context.Context, recipient string) (int, error) {
	return o.removeWhere(func(e notification.Email) bool { return matchesRecipient(e, recipient) }), nil
}

func (o *Outbox) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	return o.removeWhere(func(e notification.Email) bool { return e.Timestamp.Before(cutoff) }), nil
}

func (o *Outbox) removeWhere(drop func(notification.Email) bool) int {
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	kept := o.s.emails[:0]
	removed := 0
	for _, e := range o.s.emails {
		if drop(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	o.s.emails = kept
	return removed
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// ReminderLedger implements notification.ReminderLedger.
type ReminderLedger struct{ s *Store }

var _ notification.ReminderLedger = (*ReminderLedger)(nil)

func (l *ReminderLedger) MarkSent(_ context.Context, userID, day string) (bool, error) {
	key := userID + "|" + day
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if _, ok := l.s.reminders[key]; ok {
		return false, nil
	}
	l.s.reminders[key] = struct{}{}
	return true, nil
}

func (l *ReminderLedger) Release(_ context.Context, userID, day string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	delete(l.s.reminders, userID+"|"+day)
	return nil
}
