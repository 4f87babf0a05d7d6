package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errRelay = errors.New("relay down")

func fail(context.Context) error    { return errRelay }
func succeed(context.Context) error { return nil }

func TestBreaker_Lifecycle(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	var transitions []string
	b := New(Settings{
		Name:     "test",
		Trip:     2,
		Cooldown: time.Minute,
		Now:      func() time.Time { return now },
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	ctx := context.Background()

	assert.ErrorIs(t, b.Execute(ctx, fail), errRelay)
	assert.Equal(t, StateClosed, b.State())
	assert.ErrorIs(t, b.Execute(ctx, fail), errRelay)
	assert.Equal(t, StateOpen, b.State())

	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrOpen)

	now = now.Add(time.Minute)
	assert.NoError(t, b.Execute(ctx, succeed))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := New(Settings{Trip: 2})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	_ = b.Execute(ctx, succeed)
	_ = b.Execute(ctx, fail)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	b := New(Settings{Trip: 1, Now: func() time.Time { return now }})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	now = now.Add(time.Hour)
	assert.ErrorIs(t, b.Execute(ctx, fail), errRelay)
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Execute(ctx, succeed), ErrOpen)
}

func TestBreaker_SingleTrialWhileHalfOpen(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	b := New(Settings{Trip: 1, Cooldown: time.Second, Now: func() time.Time { return now }})
	ctx := context.Background()

	_ = b.Execute(ctx, fail)
	now = now.Add(time.Second)

	err := b.Execute(ctx, func(ctx context.Context) error {
		assert.ErrorIs(t, b.Execute(ctx, succeed), ErrOpen, "second caller waits for the trial")
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestRelay_IgnoresRejectedErrors(t *testing.T) {
	b := Relay(func(err error) bool { return !errors.Is(err, errRelay) }, nil)
	for i := 0; i < 10; i++ {
		_ = b.Execute(context.Background(), fail)
	}
	assert.Equal(t, StateClosed, b.State())
}
