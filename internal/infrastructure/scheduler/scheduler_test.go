package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type countingJob struct {
	name string
	runs atomic.Int32
	err  error
}

func (j *countingJob) Name() string        { return j.name }
func (j *countingJob) Description() string { return "counts runs" }
func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return j.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRegister(t *testing.T) {
	s := New(Config{Logger: quietLogger()})

	assert.ErrorIs(t, s.Register(nil, NewIntervalSchedule(time.Minute)), ErrNilJob)
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, nil), ErrNilSchedule)

	require.NoError(t, s.Register(&countingJob{name: "b"}, NewIntervalSchedule(time.Minute)))
	require.NoError(t, s.Register(&countingJob{name: "a"}, MustParseCronExpression(EveryDay3AM)))
	assert.ErrorIs(t, s.Register(&countingJob{name: "a"}, NewIntervalSchedule(time.Minute)), ErrJobAlreadyExists)

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "0 3 * * *", jobs[0].Schedule)
	assert.Equal(t, "@every 1m0s", jobs[1].Schedule)
}

func TestRunNow(t *testing.T) {
	s := New(Config{Logger: quietLogger()})
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	require.NoError(t, s.Register(ok, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(bad, NewIntervalSchedule(time.Hour)))

	res, err := s.RunNow(context.Background(), "ok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Manual)
	assert.EqualValues(t, 1, ok.runs.Load())

	res, err = s.RunNow(context.Background(), "bad")
	assert.EqualError(t, err, "boom")
	assert.False(t, res.Success)

	_, err = s.RunNow(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)

	snap := s.Metrics().Snapshot()
	assert.EqualValues(t, 2, snap.TotalExecutions)
	assert.EqualValues(t, 1, snap.TotalFailures)
	assert.Len(t, s.History(0), 2)
	assert.Equal(t, "bad", s.History(1)[0].JobName)
}

func TestStatus(t *testing.T) {
	s := New(Config{Logger: quietLogger()})
	require.NoError(t, s.Register(&countingJob{name: "ok"}, NewIntervalSchedule(time.Hour)))
	require.NoError(t, s.Register(&countingJob{name: "bad", err: errors.New("boom")}, NewIntervalSchedule(time.Hour)))

	_, _ = s.RunNow(context.Background(), "ok")
	_, _ = s.RunNow(context.Background(), "bad")
	_, _ = s.RunNow(context.Background(), "ok")

	st := s.Status(2)
	assert.False(t, st.Running)
	require.Len(t, st.Jobs, 2)
	assert.EqualValues(t, 3, st.Totals.TotalExecutions)
	assert.EqualValues(t, 1, st.Totals.TotalFailures)

	require.Len(t, st.Recent, 2)
	assert.Equal(t, "bad", st.Recent[0].Job)
	assert.Equal(t, "boom", st.Recent[0].Error)
	assert.Equal(t, "ok", st.Recent[1].Job)
	assert.True(t, st.Recent[1].Success)

	assert.Empty(t, s.Status(0).Recent)
}

func TestStartStop_RunsDueJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(Config{Logger: quietLogger(), TickInterval: 5 * time.Millisecond})
	job := &countingJob{name: "tick"}
	require.NoError(t, s.Register(job, NewIntervalSchedule(10*time.Millisecond)))

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrSchedulerAlreadyRunning)
	assert.True(t, s.IsRunning())

	require.Eventually(t, func() bool { return job.runs.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.ErrorIs(t, s.Stop(), ErrSchedulerNotRunning)
}

func TestRun_StopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New(Config{Logger: quietLogger(), TickInterval: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, s.IsRunning, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

// A job still running is not started again on the next tick.
func TestDispatch_NoOverlap(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	var started atomic.Int32
	job := &blockingJob{started: &started, release: release}

	s := New(Config{Logger: quietLogger(), TickInterval: 2 * time.Millisecond})
	require.NoError(t, s.Register(job, NewIntervalSchedule(time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	require.Eventually(t, func() bool { return started.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 1, started.Load())

	close(release)
	require.NoError(t, s.Stop())
}

type blockingJob struct {
	started *atomic.Int32
	release chan struct{}
}

func (j *blockingJob) Name() string        { return "blocking" }
func (j *blockingJob) Description() string { return "blocks until released" }
func (j *blockingJob) Run(ctx context.Context) error {
	j.started.Add(1)
	select {
	case <-j.release:
	case <-ctx.Done():
	}
	return nil
}

func TestCronExpression_Next(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	from := time.Date(2024, 3, 4, 10, 7, 30, 0, loc)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"*/15 * * * *", time.Date(2024, 3, 4, 10, 15, 0, 0, loc)},
		{"0 3 * * *", time.Date(2024, 3, 5, 3, 0, 0, 0, loc)},
		{"0 18 * * 1-5", time.Date(2024, 3, 4, 18, 0, 0, 0, loc)},
		{"30 9 * * 0", time.Date(2024, 3, 10, 9, 30, 0, 0, loc)},
		{"5/20 * * * *", time.Date(2024, 3, 4, 10, 25, 0, 0, loc)},
		{"0,45 10 * * *", time.Date(2024, 3, 4, 10, 45, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			ce, err := ParseCronExpression(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ce.Next(from))
			assert.Equal(t, tt.expr, ce.String())
		})
	}
}

func TestParseCronExpression_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"* * * *",
		"60 * * * *",
		"* 24 * * *",
		"* * 0 * *",
		"*/0 * * * *",
		"10-5 * * * *",
		"a * * * *",
	} {
		_, err := ParseCronExpression(expr)
		assert.Error(t, err, expr)
	}
	assert.Panics(t, func() { MustParseCronExpression("bad") })
}

func TestIntervalSchedule(t *testing.T) {
	now := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, now.Add(5*time.Minute), NewIntervalSchedule(5*time.Minute).Next(now))
	assert.Equal(t, time.Minute, NewIntervalSchedule(0).Interval)
}
