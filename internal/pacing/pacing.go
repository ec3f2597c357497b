// Package pacing holds the human-like timing used when driving the login form.
//
// The delays are functional: the target's challenge widget scores the
// interaction pattern, so removing them changes what the suite observes.
package pacing

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Timing groups every fixed delay and bounded wait used by the suite.
type Timing struct {
	KeyDelay       time.Duration // between typed characters
	FieldPause     time.Duration // after the email field, before the password field
	PreSubmitPause time.Duration // after the submit button is visible, before the click
	ErrorWait      time.Duration // how long to wait for the error region
	SuccessWait    time.Duration // how long callers wait for the success URL
	SettleWait     time.Duration // how long negative scenarios let the page settle
	ChallengeWait  time.Duration // initial wait before admin logins on the remote target
}

// Default mirrors the timings the suite was tuned with.
var Default = Timing{
	KeyDelay:       100 * time.Millisecond,
	FieldPause:     500 * time.Millisecond,
	PreSubmitPause: 1000 * time.Millisecond,
	ErrorWait:      3000 * time.Millisecond,
	SuccessWait:    15000 * time.Millisecond,
	SettleWait:     2000 * time.Millisecond,
	ChallengeWait:  10000 * time.Millisecond,
}

// Validate rejects negative durations and zero bounded waits.
func (t Timing) Validate() error {
	fixed := []struct {
		name string
		d    time.Duration
	}{
		{"KeyDelay", t.KeyDelay},
		{"FieldPause", t.FieldPause},
		{"PreSubmitPause", t.PreSubmitPause},
		{"SettleWait", t.SettleWait},
		{"ChallengeWait", t.ChallengeWait},
	}
	for _, f := range fixed {
		if f.d < 0 {
			return fmt.Errorf("pacing: %s must not be negative (got %s)", f.name, f.d)
		}
	}
	if t.ErrorWait <= 0 {
		return fmt.Errorf("pacing: ErrorWait must be positive (got %s)", t.ErrorWait)
	}
	if t.SuccessWait <= 0 {
		return fmt.Errorf("pacing: SuccessWait must be positive (got %s)", t.SuccessWait)
	}
	return nil
}

// Millis converts a duration to the float milliseconds Playwright expects.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Throttle spaces out login submissions across a run so the target does not
// lock the account. A zero interval disables it.
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows one submission per interval with no burst beyond the first.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		return &Throttle{}
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next submission may proceed or ctx is done.
func (th *Throttle) Wait(ctx context.Context) error {
	if th == nil || th.limiter == nil {
		return nil
	}
	if err := th.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing: submit throttle: %w", err)
	}
	return nil
}

// Pause sleeps for d or until ctx is done. A non-positive d returns at once.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
