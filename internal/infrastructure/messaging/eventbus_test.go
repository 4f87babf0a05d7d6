package messaging

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/espacohidro/pontocerto/internal/domain/shared"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func quietConfig(async bool) InMemoryEventBusConfig {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = async
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func punchEvent() shared.Event {
	return shared.NewPunchRecordedEvent("u1", "l1", "ENTRY", time.Now())
}

func TestInMemoryEventBus_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(quietConfig(false))
	defer bus.Close()

	var typed, all int
	require.NoError(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error { typed++; return nil }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { all++; return nil }))

	require.NoError(t, bus.Publish(punchEvent()))
	require.NoError(t, bus.Publish(shared.NewUserDeletedEvent("u1")))

	assert.Equal(t, 1, typed)
	assert.Equal(t, 2, all)

	snap := bus.Metrics().Snapshot()
	assert.EqualValues(t, 2, snap.TotalPublished)
	assert.EqualValues(t, 3, snap.TotalHandlerExecs)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(quietConfig(false))
	defer bus.Close()

	var after int
	require.NoError(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error { return errors.New("smtp down") }))
	require.NoError(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error { after++; return nil }))

	require.NoError(t, bus.Publish(punchEvent()))
	assert.Equal(t, 1, after)
	assert.EqualValues(t, 2, bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(quietConfig(true))

	var handled atomic.Int32
	require.NoError(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error {
		handled.Add(1)
		return nil
	}))

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(punchEvent()))
	}
	require.Eventually(t, func() bool { return handled.Load() == 3 }, time.Second, time.Millisecond)

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(punchEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventPunchRecorded, func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryEventBus_RejectsNil(t *testing.T) {
	bus := NewInMemoryEventBus(quietConfig(false))
	defer bus.Close()

	assert.Error(t, bus.Subscribe(shared.EventPunchRecorded, nil))
	assert.Error(t, bus.SubscribeAll(nil))
	assert.Error(t, bus.Publish(nil))
}
