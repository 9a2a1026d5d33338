package logic

import "time"

// Monitor tracks a set of input signals and detects debounced transitions.
// Signals settle independently: each emits an initial observation once its
// level has been stable for the debounce duration, and a transition event
// for every debounced change after that.
type Monitor struct {
	debounceDuration time.Duration
	signals          []SignalState
	counts           []Counts
	startTime        time.Time
	lastHeartbeat    time.Time
}

// NewMonitor creates a monitor for n input signals with the given debounce
// duration. The startTime is used for calculating uptime in heartbeat events.
func NewMonitor(n int, debounceDuration time.Duration, startTime time.Time) *Monitor {
	return &Monitor{
		debounceDuration: debounceDuration,
		signals:          make([]SignalState, n),
		counts:           make([]Counts, n),
		startTime:        startTime,
		lastHeartbeat:    startTime,
	}
}

// Process takes one sample per signal and returns any events that should be
// emitted. levels must have one entry per monitored signal, in monitor order.
// When several signals change in the same sample, events are ordered by
// signal index.
func (m *Monitor) Process(levels []bool, now time.Time) []Event {
	var events []Event
	for i := range m.signals {
		if ev := m.processSignal(i, boolToState(levels[i]), now); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// processSignal handles debounce logic for a single signal.
// Returns an event if the signal settled or transitioned, nil otherwise.
func (m *Monitor) processSignal(i int, newState State, now time.Time) *Event {
	s := &m.signals[i]

	// First observations of this signal
	if !s.Settled {
		if s.Pending != newState {
			// Start (or restart) observing
			s.Pending = newState
			s.PendingSince = now
			return nil
		}

		// Check if debounce period has passed
		if now.Sub(s.PendingSince) < m.debounceDuration {
			return nil
		}

		s.Stable = newState
		s.Settled = true
		s.Pending = ""
		return &Event{Timestamp: now, Signal: i, State: newState, Initial: true}
	}

	// Already settled - detect transitions
	if newState == s.Stable {
		// No change from stable state, clear any pending
		s.Pending = ""
		return nil
	}

	// State differs from stable
	if s.Pending != newState {
		// New pending state
		s.Pending = newState
		s.PendingSince = now
		return nil
	}

	// Same pending state, check debounce
	if now.Sub(s.PendingSince) < m.debounceDuration {
		return nil
	}

	s.Stable = newState
	s.Pending = ""
	if newState == StateOn {
		m.counts[i].On++
	} else {
		m.counts[i].Off++
	}
	return &Event{Timestamp: now, Signal: i, State: newState}
}

// Ready returns whether every signal has settled to a stable state.
func (m *Monitor) Ready() bool {
	for i := range m.signals {
		if !m.signals[i].Settled {
			return false
		}
	}
	return true
}

// States returns the current stable states, one per signal. Signals that
// have not settled yet report the empty state.
func (m *Monitor) States() []State {
	states := make([]State, len(m.signals))
	for i := range m.signals {
		if m.signals[i].Settled {
			states[i] = m.signals[i].Stable
		}
	}
	return states
}

// CountsSnapshot returns a copy of the per-signal transition counts.
func (m *Monitor) CountsSnapshot() []Counts {
	counts := make([]Counts, len(m.counts))
	copy(counts, m.counts)
	return counts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the signals have not all
// settled, if the interval has not elapsed, or if interval is <= 0 (disabled).
func (m *Monitor) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if !m.Ready() {
		return nil
	}

	if now.Sub(m.lastHeartbeat) < interval {
		return nil
	}

	m.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(m.startTime),
		Counts:    m.CountsSnapshot(),
	}
}
