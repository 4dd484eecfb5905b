// Package lockout implements progressive brute-force mitigation: a per-user
// failed-attempt counter and a fixed lockout window once the threshold is
// reached. Remaining attempts and remaining lockout time are derived values,
// recomputed on demand.
package lockout

import (
	"time"

	"github.com/wisespend/authcore/internal/users"
)

// Policy holds the lockout thresholds.
type Policy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultPolicy locks an account for 15 minutes after 5 consecutive failures.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 5, Duration: 15 * time.Minute}
}

// IsLocked reports whether the record is inside an active lockout window.
func (p Policy) IsLocked(rec *users.Record, now time.Time) bool {
	return rec.LockoutUntil != nil && now.Before(*rec.LockoutUntil)
}

// RecordFailure registers a failed login attempt. Reaching MaxAttempts
// starts the lockout window and freezes the counter at the threshold;
// failures during an active window neither increment nor extend anything.
// A failure after the window has expired restarts counting from one.
func (p Policy) RecordFailure(rec *users.Record, now time.Time) {
	if p.IsLocked(rec, now) {
		return
	}
	if rec.LockoutUntil != nil {
		// Expired window: fresh counting.
		rec.LockoutUntil = nil
		rec.LoginAttempts = 0
	}
	rec.LoginAttempts++
	if rec.LoginAttempts >= p.MaxAttempts {
		rec.LoginAttempts = p.MaxAttempts
		until := now.Add(p.Duration)
		rec.LockoutUntil = &until
	}
}

// RecordSuccess resets the counter, clears any lockout, and stamps LastLogin.
func (p Policy) RecordSuccess(rec *users.Record, now time.Time) {
	rec.LoginAttempts = 0
	rec.LockoutUntil = nil
	t := now
	rec.LastLogin = &t
}

// RemainingAttempts reports how many failures are left before lockout.
func (p Policy) RemainingAttempts(rec *users.Record) int {
	remaining := p.MaxAttempts - rec.LoginAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingLockout reports how long the active window still lasts, or zero.
func (p Policy) RemainingLockout(rec *users.Record, now time.Time) time.Duration {
	if !p.IsLocked(rec, now) {
		return 0
	}
	return rec.LockoutUntil.Sub(now)
}
