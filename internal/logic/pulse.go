package logic

import "time"

// Pulse is the state machine for the door opener relay: idle until
// triggered, then active for a fixed duration, then idle again. Triggers
// that arrive while a pulse is active are ignored; the active pulse is
// neither restarted nor extended.
type Pulse struct {
	duration  time.Duration
	active    bool
	startedAt time.Time
	count     int
}

// NewPulse creates a pulse state machine with the given hold duration.
func NewPulse(duration time.Duration) *Pulse {
	return &Pulse{duration: duration}
}

// Trigger starts a pulse and returns true. It returns false if a pulse is
// already active, in which case the caller must not touch the relay.
func (p *Pulse) Trigger(now time.Time) bool {
	if p.active {
		return false
	}
	p.active = true
	p.startedAt = now
	p.count++
	return true
}

// Expire returns true exactly once per pulse, at the first check after the
// hold duration has elapsed. The caller deasserts the relay when it fires.
func (p *Pulse) Expire(now time.Time) bool {
	if !p.active {
		return false
	}
	if now.Sub(p.startedAt) < p.duration {
		return false
	}
	p.active = false
	return true
}

// ForceIdle abandons any active pulse without waiting for expiry. Used on
// shutdown, where the caller deasserts the relay synchronously.
func (p *Pulse) ForceIdle() {
	p.active = false
}

// Active returns whether a pulse is currently in progress.
func (p *Pulse) Active() bool {
	return p.active
}

// Remaining returns the time left until the active pulse expires, or zero
// when idle.
func (p *Pulse) Remaining(now time.Time) time.Duration {
	if !p.active {
		return 0
	}
	left := p.duration - now.Sub(p.startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Count returns the number of pulses started since startup, including any
// pulse currently active.
func (p *Pulse) Count() int {
	return p.count
}
