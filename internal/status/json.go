package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Signals       []SignalJSON `json:"signals"`
	Ready         bool         `json:"ready"`
	Relay         RelayJSON    `json:"relay"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Host          *HostJSON    `json:"host,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// SignalJSON is the JSON representation of one input signal.
type SignalJSON struct {
	Name  string `json:"name"`
	State string `json:"state"`
	On    int    `json:"on_count"`
	Off   int    `json:"off_count"`
}

// RelayJSON is the JSON representation of the relay pulse state.
type RelayJSON struct {
	Active bool `json:"active"`
	Pulses int  `json:"pulses"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// HostJSON is the JSON representation of host health figures.
type HostJSON struct {
	Hostname       string  `json:"hostname"`
	UptimeSeconds  uint64  `json:"uptime_seconds"`
	Load1          float64 `json:"load1"`
	MemUsedPercent float64 `json:"mem_used_percent"`
	CPUTempC       float64 `json:"cpu_temp_c"`
}

// ConfigJSON is the JSON representation of adapter config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	PulseMs     int64  `json:"pulse_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	BaseTopic   string `json:"base_topic"`
	HTTPAddr    string `json:"http_addr,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	signals := make([]SignalJSON, len(snap.Signals))
	for i, sig := range snap.Signals {
		state := string(sig.State)
		if state == "" {
			state = "UNKNOWN"
		}
		signals[i] = SignalJSON{Name: sig.Name, State: state, On: sig.On, Off: sig.Off}
	}

	return StatusInner{
		Signals:       signals,
		Ready:         snap.Ready,
		Relay:         RelayJSON{Active: snap.Pulse.Active, Pulses: snap.Pulse.Count},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			PulseMs:     snap.Config.PulseMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			BaseTopic:   snap.Config.BaseTopic,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildHost(snap Snapshot, inner *StatusInner) {
	if snap.Host != nil {
		inner.Host = &HostJSON{
			Hostname:       snap.Host.Hostname,
			UptimeSeconds:  snap.Host.UptimeSeconds,
			Load1:          snap.Host.Load1,
			MemUsedPercent: snap.Host.MemUsedPercent,
			CPUTempC:       snap.Host.CPUTempC,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildHost(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildHost(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
