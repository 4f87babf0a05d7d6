package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/notification"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
)

// store is the subset of Cache the decorators use.
type store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
}

var _ store = (*Cache)(nil)

// SettingsCache is a read-through cache in front of a settings repository.
// Redis failures fall through to the repository.
type SettingsCache struct {
	next   settings.Repository
	cache  store
	ttl    time.Duration
	logger *slog.Logger
}

// NewSettingsCache wraps next. A nil logger uses slog.Default().
func NewSettingsCache(next settings.Repository, cache *Cache, logger *slog.Logger) *SettingsCache {
	return newSettingsCache(next, cache, logger)
}

func newSettingsCache(next settings.Repository, cache store, logger *slog.Logger) *SettingsCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsCache{
		next:   next,
		cache:  cache,
		ttl:    TTLSettings,
		logger: logger.With("component", "settings_cache"),
	}
}

var _ settings.Repository = (*SettingsCache)(nil)

// Get implements settings.Repository.
func (c *SettingsCache) Get(ctx context.Context) (settings.CompanySettings, error) {
	var cached settings.CompanySettings
	err := c.cache.Get(ctx, SettingsKey(), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("settings cache read failed", "error", err)
	}

	s, err := c.next.Get(ctx)
	if err != nil {
		return settings.CompanySettings{}, err
	}
	if err := c.cache.Set(ctx, SettingsKey(), s, c.ttl); err != nil {
		c.logger.Warn("settings cache write failed", "error", err)
	}
	return s, nil
}

// Save implements settings.Repository and invalidates the cached copy.
func (c *SettingsCache) Save(ctx context.Context, s settings.CompanySettings) error {
	if err := c.next.Save(ctx, s); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate drops the cached copy, e.g. after a backup restore.
func (c *SettingsCache) Invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx, SettingsKey()); err != nil {
		c.logger.Warn("settings cache invalidation failed", "error", err)
	}
}

// BackupStore wraps a backup.Store and drops the cached settings once a
// restore has replaced them. The key lives in Redis, so every process
// sharing the cache sees the restored schedule on its next read.
type BackupStore struct {
	next     backup.Store
	settings *SettingsCache
}

// NewBackupStore creates a new BackupStore.
func NewBackupStore(next backup.Store, cache *SettingsCache) *BackupStore {
	return &BackupStore{next: next, settings: cache}
}

var _ backup.Store = (*BackupStore)(nil)

// Replace implements backup.Store.
func (s *BackupStore) Replace(ctx context.Context, snap *backup.Snapshot) error {
	if err := s.next.Replace(ctx, snap); err != nil {
		return err
	}
	s.settings.Invalidate(ctx)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// REMINDER LEDGER
// ══════════════════════════════════════════════════════════════════════════════

// ReminderLedger implements notification.ReminderLedger with SETNX, so
// several workers never remind the same user twice on one day.
type ReminderLedger struct {
	cache store
	ttl   time.Duration
}

// NewReminderLedger creates a new ReminderLedger.
func NewReminderLedger(cache *Cache) *ReminderLedger {
	return &ReminderLedger{cache: cache, ttl: TTLReminder}
}

var _ notification.ReminderLedger = (*ReminderLedger)(nil)

// MarkSent implements notification.ReminderLedger.
func (l *ReminderLedger) MarkSent(ctx context.Context, userID, day string) (bool, error) {
	return l.cache.SetNX(ctx, ReminderKey(userID, day), time.Now().UTC(), l.ttl)
}

// Release implements notification.ReminderLedger.
func (l *ReminderLedger) Release(ctx context.Context, userID, day string) error {
	return l.cache.Delete(ctx, ReminderKey(userID, day))
}
