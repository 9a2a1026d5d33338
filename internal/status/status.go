// Package status provides a thread-safe status tracker for the doorbell
// adapter. It is read by the HTTP handlers and serialized into the MQTT
// system events.
package status

import (
	"sync"
	"time"

	"github.com/casalprim/doorbell-adapter/internal/logic"
)

// HostInfo contains host health figures. This is a local copy to avoid
// importing internal/sysinfo from status.
type HostInfo struct {
	Hostname       string
	UptimeSeconds  uint64
	Load1          float64
	MemUsedPercent float64
	CPUTempC       float64
}

// Config contains adapter configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	PulseMs     int64
	HeartbeatMs int64
	Broker      string
	BaseTopic   string
	HTTPAddr    string
}

// SignalStatus is the latest debounced view of one input signal.
type SignalStatus struct {
	Name  string
	State logic.State
	On    int
	Off   int
}

// PulseStatus is the relay pulse state.
type PulseStatus struct {
	Active bool
	Count  int
}

// Snapshot is a point-in-time view of adapter state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Signals       []SignalStatus
	Ready         bool
	Pulse         PulseStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Host          *HostInfo
	Config        Config
}

// Uptime returns the duration since the adapter started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable adapter state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the signal states and readiness. Called from the adapter
// loop on every tick. The slice is copied so later snapshots stay
// consistent when the caller reuses its buffer.
func (t *Tracker) Update(signals []SignalStatus, ready bool) {
	sigs := make([]SignalStatus, len(signals))
	copy(sigs, signals)

	t.mu.Lock()
	t.snap.Signals = sigs
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetPulse sets the relay pulse state.
func (t *Tracker) SetPulse(active bool, count int) {
	t.mu.Lock()
	t.snap.Pulse = PulseStatus{Active: active, Count: count}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetHost sets the host health figures.
func (t *Tracker) SetHost(info *HostInfo) {
	t.mu.Lock()
	t.snap.Host = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the adapter state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
