package service

import (
	"context"
	"errors"
	"math"
	"time"

	"shareit/internal/domain"
	"shareit/internal/metrics"
)

// RetryPolicy defines exponential backoff parameters.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns delay for a given attempt (1-based) with clamping.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	d := time.Duration(delay)
	if r.MaxDelay > 0 && d > r.MaxDelay {
		d = r.MaxDelay
	}
	if d <= 0 {
		d = time.Second
	}
	return d
}

// storeRetry re-runs a whole storage operation once on a transient failure.
func storeRetry(delay time.Duration) RetryPolicy {
	if delay <= 0 {
		delay = 50 * time.Millisecond
	}
	return RetryPolicy{MaxRetries: 1, InitialDelay: delay, MaxDelay: delay, BackoffFactor: 1}
}

// Do runs op until it succeeds, fails with a non-transient error, or the
// retries are spent. Exhausted retries surface as domain.ErrUnavailable.
func (r RetryPolicy) Do(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil || !errors.Is(err, domain.ErrTransient) {
			return err
		}
		if attempt >= r.MaxRetries {
			return errors.Join(domain.ErrUnavailable, err)
		}

		metrics.IncStoreRetry()
		timer := time.NewTimer(r.NextDelay(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(domain.ErrUnavailable, ctx.Err())
		case <-timer.C:
		}
	}
}
