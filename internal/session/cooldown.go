package session

import "time"

// Cooldown derives a countdown from a locally stored request timestamp. It is
// a display hint only; the backend enforces the real limit.
type Cooldown struct {
	Period time.Duration
}

// Remaining returns how long until the action may be requested again, or 0.
func (c Cooldown) Remaining(since *time.Time, now time.Time) time.Duration {
	if since == nil || c.Period <= 0 {
		return 0
	}
	left := since.Add(c.Period).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Active reports whether the countdown is still running.
func (c Cooldown) Active(since *time.Time, now time.Time) bool {
	return c.Remaining(since, now) > 0
}

// Seconds is Remaining rounded up to whole seconds, as shown to the user.
func (c Cooldown) Seconds(since *time.Time, now time.Time) int {
	left := c.Remaining(since, now)
	return int((left + time.Second - 1) / time.Second)
}
