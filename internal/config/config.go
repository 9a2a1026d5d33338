// Package config loads the adapter configuration from a YAML file with
// environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Canonical input signal names. They name the MQTT state topics and the
// Home Assistant discovery components, so they are fixed rather than
// configurable.
const (
	SignalVideoSensor = "video_sensor"
	SignalVideoButton = "video_button"
	SignalDoorButton  = "door_button"
	SignalDoorSensor  = "door_sensor"
)

// Config is the root configuration for the doorbell adapter.
//
// Loading order: hardcoded defaults, then YAML file values, then
// environment variables (DOORBELL_MQTT_HOST, DOORBELL_MQTT_USERNAME,
// DOORBELL_MQTT_PASSWORD).
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Pins      PinsConfig      `yaml:"pins"`
	Timing    TimingConfig    `yaml:"timing"`
	HTTP      HTTPConfig      `yaml:"http"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// MQTTConfig contains broker connection settings.
type MQTTConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	ClientID  string `yaml:"client_id"`
	BaseTopic string `yaml:"base_topic"`
}

// PinsConfig contains BCM pin assignments. DoorSensor is optional; zero
// disables it. The relay drives the door opener and is usually wired
// active-low (most relay boards energise on a low input).
type PinsConfig struct {
	Chip           string `yaml:"chip"`
	VideoSensor    int    `yaml:"video_sensor"`
	VideoButton    int    `yaml:"video_button"`
	DoorButton     int    `yaml:"door_button"`
	DoorSensor     int    `yaml:"door_sensor"`
	Relay          int    `yaml:"relay"`
	RelayActiveLow bool   `yaml:"relay_active_low"`
}

// TimingConfig contains poll, debounce and relay pulse durations in
// milliseconds. Debounce is a tuning parameter: intercom lines are noisy
// and tens of milliseconds is usually right, but the best value depends
// on the installation.
type TimingConfig struct {
	PollMs     int `yaml:"poll_ms"`
	DebounceMs int `yaml:"debounce_ms"`
	PulseMs    int `yaml:"pulse_ms"`
}

// HTTPConfig contains the status page listen address. Empty disables the
// HTTP server.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HeartbeatConfig contains the periodic status event interval. Zero
// disables heartbeats.
type HeartbeatConfig struct {
	IntervalMinutes int `yaml:"interval_minutes"`
}

// DiscoveryConfig contains Home Assistant MQTT discovery settings.
type DiscoveryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Prefix     string `yaml:"prefix"`
	DeviceID   string `yaml:"device_id"`
	DeviceName string `yaml:"device_name"`
}

// Signal pairs a canonical signal name with its BCM pin.
type Signal struct {
	Name string
	Pin  int
}

// Load reads configuration from a YAML file, applies environment variable
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config matching the reference installation: a
// Raspberry Pi wired into the intercom with the relay across the door
// opener button.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			ClientID:  "doorbell-adapter",
			BaseTopic: "home/doorbell",
		},
		Pins: PinsConfig{
			Chip:           "gpiochip0",
			VideoSensor:    4,
			VideoButton:    15,
			DoorButton:     14,
			DoorSensor:     0,
			Relay:          23,
			RelayActiveLow: true,
		},
		Timing: TimingConfig{
			PollMs:     20,
			DebounceMs: 60,
			PulseMs:    800,
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Heartbeat: HeartbeatConfig{
			IntervalMinutes: 15,
		},
		Discovery: DiscoveryConfig{
			Enabled:    true,
			Prefix:     "homeassistant",
			DeviceID:   "doorbell1234",
			DeviceName: "Interfono",
		},
	}
}

// applyEnvOverrides applies environment variable overrides. Credentials
// normally arrive this way so the YAML file can be checked in.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOORBELL_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("DOORBELL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("DOORBELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Port < 1 || c.MQTT.Port > 65535 {
		errs = append(errs, "mqtt.port must be between 1 and 65535")
	}
	if c.MQTT.ClientID == "" {
		errs = append(errs, "mqtt.client_id is required")
	}
	if c.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required")
	} else if strings.ContainsAny(c.MQTT.BaseTopic, "+#") {
		errs = append(errs, "mqtt.base_topic must not contain wildcards")
	}

	if c.Timing.PollMs <= 0 {
		errs = append(errs, "timing.poll_ms must be positive")
	}
	if c.Timing.DebounceMs < c.Timing.PollMs {
		errs = append(errs, "timing.debounce_ms must be at least timing.poll_ms")
	}
	if c.Timing.PulseMs <= 0 {
		errs = append(errs, "timing.pulse_ms must be positive")
	}

	if c.Pins.VideoSensor <= 0 {
		errs = append(errs, "pins.video_sensor is required")
	}
	if c.Pins.VideoButton <= 0 {
		errs = append(errs, "pins.video_button is required")
	}
	if c.Pins.DoorButton <= 0 {
		errs = append(errs, "pins.door_button is required")
	}
	if c.Pins.DoorSensor < 0 {
		errs = append(errs, "pins.door_sensor must not be negative (0 disables it)")
	}
	if c.Pins.Relay <= 0 {
		errs = append(errs, "pins.relay is required")
	}
	if dup := duplicatePin(c.enabledPins()); dup != 0 {
		errs = append(errs, fmt.Sprintf("pin %d is assigned more than once", dup))
	}

	if c.Heartbeat.IntervalMinutes < 0 {
		errs = append(errs, "heartbeat.interval_minutes must not be negative (0 disables it)")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// enabledPins returns every pin the adapter will request, inputs and relay.
func (c *Config) enabledPins() []int {
	pins := []int{c.Pins.VideoSensor, c.Pins.VideoButton, c.Pins.DoorButton, c.Pins.Relay}
	if c.Pins.DoorSensor > 0 {
		pins = append(pins, c.Pins.DoorSensor)
	}
	return pins
}

// duplicatePin returns the first pin that appears more than once, or zero.
func duplicatePin(pins []int) int {
	seen := make(map[int]bool, len(pins))
	for _, p := range pins {
		if seen[p] {
			return p
		}
		seen[p] = true
	}
	return 0
}

// InputSignals returns the monitored input signals in a fixed order. The
// door sensor is appended only when its pin is configured.
func (c *Config) InputSignals() []Signal {
	signals := []Signal{
		{Name: SignalVideoSensor, Pin: c.Pins.VideoSensor},
		{Name: SignalVideoButton, Pin: c.Pins.VideoButton},
		{Name: SignalDoorButton, Pin: c.Pins.DoorButton},
	}
	if c.Pins.DoorSensor > 0 {
		signals = append(signals, Signal{Name: SignalDoorSensor, Pin: c.Pins.DoorSensor})
	}
	return signals
}

// Poll returns the GPIO poll interval as a Duration.
func (c *Config) Poll() time.Duration {
	return time.Duration(c.Timing.PollMs) * time.Millisecond
}

// Debounce returns the debounce duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Timing.DebounceMs) * time.Millisecond
}

// Pulse returns the relay pulse duration.
func (c *Config) Pulse() time.Duration {
	return time.Duration(c.Timing.PulseMs) * time.Millisecond
}

// HeartbeatInterval returns the heartbeat interval, or zero when disabled.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat.IntervalMinutes) * time.Minute
}

// BrokerURL returns the tcp:// URL for the MQTT broker.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTT.Host, c.MQTT.Port)
}
