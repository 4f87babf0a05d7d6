package redis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espacohidro/pontocerto/internal/domain/attendance"
	"github.com/espacohidro/pontocerto/internal/domain/backup"
	"github.com/espacohidro/pontocerto/internal/domain/settings"
	"github.com/espacohidro/pontocerto/internal/domain/staff"
	"github.com/espacohidro/pontocerto/internal/infrastructure/persistence/memory"
)

// fakeStore keeps JSON values in a map.
type fakeStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet error
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string][]byte{}}
}

func (f *fakeStore) Get(_ context.Context, key string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet != nil {
		return f.failGet
	}
	raw, ok := f.data[key]
	if !ok {
		return ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = raw
	return nil
}

func (f *fakeStore) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	_, exists := f.data[key]
	f.mu.Unlock()
	if exists {
		return false, nil
	}
	return true, f.Set(ctx, key, value, ttl)
}

// countingRepo counts reads of the wrapped repository.
type countingRepo struct {
	settings.Repository
	gets int
}

func (r *countingRepo) Get(ctx context.Context) (settings.CompanySettings, error) {
	r.gets++
	return r.Repository.Get(ctx)
}

func TestSettingsCache_ReadThrough(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{Repository: memory.NewStore().Settings()}
	fake := newFakeStore()
	c := newSettingsCache(repo, fake, nil)

	first, err := c.Get(ctx)
	require.NoError(t, err)
	second, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.gets)

	updated := settings.Defaults()
	updated.WorkStart = "07:30"
	require.NoError(t, c.Save(ctx, updated))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "07:30", got.WorkStart)
	assert.Equal(t, 2, repo.gets)
}

func TestSettingsCache_FallsThroughOnRedisError(t *testing.T) {
	repo := &countingRepo{Repository: memory.NewStore().Settings()}
	fake := newFakeStore()
	fake.failGet = errors.New("connection refused")
	c := newSettingsCache(repo, fake, nil)

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.Defaults(), got)
}

func TestBackupStore_RestoreInvalidatesSettings(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	cache := newSettingsCache(mem.Settings(), newFakeStore(), nil)
	restore := NewBackupStore(mem, cache)

	before, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "08:00", before.WorkStart)

	restored := settings.Defaults()
	restored.WorkStart = "06:30"
	restored.WorkEnd = "15:30"
	require.NoError(t, restore.Replace(ctx, &backup.Snapshot{
		Users:    []staff.User{staff.DefaultAdmin()},
		Logs:     []attendance.TimeLog{},
		Settings: restored,
	}))

	after, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "06:30", after.WorkStart)
	assert.Equal(t, "15:30", after.WorkEnd)
}

func TestReminderLedger(t *testing.T) {
	l := &ReminderLedger{cache: newFakeStore(), ttl: TTLReminder}
	ctx := context.Background()

	ok, err := l.MarkSent(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.MarkSent(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.MarkSent(ctx, "u1", "2024-03-05")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, l.Release(ctx, "u1", "2024-03-04"))
	ok, err = l.MarkSent(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "pontocerto:reminder:2024-03-04:u1", ReminderKey("u1", "2024-03-04"))
	assert.Equal(t, "localhost:6379", DefaultConfig().Addr())

	opts, err := Config{URL: "redis://:pw@cache:6380/2"}.Options()
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestCache_Integration(t *testing.T) {
	url := os.Getenv("PONTOCERTO_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PONTOCERTO_TEST_REDIS_URL not set")
	}
	c, err := NewCache(Config{URL: url})
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	key := ReminderKey("integration", time.Now().Format("2006-01-02T15:04:05.000000000"))
	t.Cleanup(func() { _ = c.Delete(ctx, key) })

	ok, err := c.SetNX(ctx, key, 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	var v int
	require.NoError(t, c.Get(ctx, key, &v))
	assert.Equal(t, 1, v)

	require.NoError(t, c.Delete(ctx, key))
	assert.ErrorIs(t, c.Get(ctx, key, &v), ErrCacheMiss)
}
