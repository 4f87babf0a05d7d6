// Package retry reruns an operation with capped exponential backoff.
// It covers the email relay and the database connection made at startup.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERROR MARKERS
// ══════════════════════════════════════════════════════════════════════════════

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retryable marks err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// Permanent marks err as final: Do returns it at once.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries the Permanent marker.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func isRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

// unmark strips a top-level marker so callers see the original error.
func unmark(err error) error {
	switch e := err.(type) {
	case *retryableError:
		return e.err
	case *permanentError:
		return e.err
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// POLICY
// ══════════════════════════════════════════════════════════════════════════════

// Policy describes how often and how patiently an operation is rerun.
// The delay doubles after every attempt, starting at Base and capped at Max.
type Policy struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
	// Jitter spreads each delay by up to ±Jitter of its value.
	Jitter float64
	// RetryAll retries unmarked errors too. Otherwise only Retryable ones are.
	RetryAll bool
	OnRetry  func(attempt int, err error, delay time.Duration)
}

// Do runs op until it succeeds, fails for good, or the attempts run out.
// The returned error has its Retryable or Permanent marker removed.
func (p Policy) Do(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err != nil {
				return unmark(err)
			}
			return ctxErr
		}

		err = op(ctx)
		switch {
		case err == nil:
			return nil
		case IsPermanent(err):
			return unmark(err)
		case !p.RetryAll && !isRetryable(err):
			return err
		case attempt >= p.Attempts:
			return unmark(err)
		}

		delay := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return unmark(err)
		case <-timer.C:
		}
	}
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.Base
	for i := 1; i < attempt && d < p.Max; i++ {
		d *= 2
	}
	if d <= 0 || d > p.Max {
		d = p.Max
	}
	if p.Jitter > 0 {
		d += time.Duration(float64(d) * p.Jitter * (rand.Float64()*2 - 1))
	}
	return max(d, 0)
}

// ══════════════════════════════════════════════════════════════════════════════
// PRESETS
// ══════════════════════════════════════════════════════════════════════════════

// Relay is the policy for the email relay. Delivery is best effort, so it
// gives up after a few seconds.
func Relay(onRetry func(attempt int, err error, delay time.Duration)) Policy {
	return Policy{
		Attempts: 3,
		Base:     300 * time.Millisecond,
		Max:      3 * time.Second,
		Jitter:   0.2,
		OnRetry:  onRetry,
	}
}

// Startup is the policy for reaching Postgres while a deployment is still
// coming up. Every error is retried.
func Startup(onRetry func(attempt int, err error, delay time.Duration)) Policy {
	return Policy{
		Attempts: 5,
		Base:     500 * time.Millisecond,
		Max:      8 * time.Second,
		Jitter:   0.1,
		RetryAll: true,
		OnRetry:  onRetry,
	}
}
