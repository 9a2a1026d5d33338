// Package logic contains pure business logic for doorbell signal tracking.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the logical state of an input signal.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// Event represents a debounced observation to be published.
type Event struct {
	Timestamp time.Time
	// Signal is the index of the signal that changed, in monitor order.
	Signal int
	State  State
	// Initial marks the first settled observation of a signal rather
	// than a transition. State topics are retained current-value, so
	// the first debounced level is reported like any other change.
	Initial bool
}

// SignalState tracks debounce state for a single input signal.
type SignalState struct {
	// Current stable (debounced) state
	Stable State
	// Pending state during debounce
	Pending State
	// Time when pending state was first observed
	PendingSince time.Time
	// Whether the signal has settled to its first stable state
	Settled bool
}

// Counts tracks the number of transitions per signal since startup.
// The initial settled observation is not counted.
type Counts struct {
	On  int
	Off int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    []Counts
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}
