// Package lockout implements the failed-attempt cooldown policy shared by
// sign-in and OTP confirmation. The policy is a pure decision function; the
// caller owns reading and persisting the counters it decides on.
package lockout

import "time"

// Policy rejects attempts once MaxFailures consecutive failures have been
// recorded, until Cooldown has elapsed since the last attempt.
type Policy struct {
	MaxFailures int
	Cooldown    time.Duration
}

// Decision is the outcome of a lockout check.
type Decision struct {
	// Allow is true when the attempt may proceed to credential checking.
	Allow bool
	// ResetFirst is true when the cooldown has elapsed and the caller must
	// persist a counter reset before proceeding.
	ResetFirst bool
	// RetryAfter is the remaining cooldown when Allow is false.
	RetryAfter time.Duration
}

// Check decides whether an attempt may proceed given the entity's current
// failure count and last attempt time. It never mutates state: on
// ResetFirst the caller persists the reset, and on a failed credential check
// the caller records the attempt.
func (p Policy) Check(failures int, lastAttempt, now time.Time) Decision {
	if failures < p.MaxFailures {
		return Decision{Allow: true}
	}
	elapsed := now.Sub(lastAttempt)
	if elapsed < p.Cooldown {
		return Decision{RetryAfter: p.Cooldown - elapsed}
	}
	return Decision{Allow: true, ResetFirst: true}
}
