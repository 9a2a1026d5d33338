package internal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/casalprim/doorbell-adapter/internal/adapter"
	"github.com/casalprim/doorbell-adapter/internal/config"
	"github.com/casalprim/doorbell-adapter/internal/gpio"
	"github.com/casalprim/doorbell-adapter/internal/mqtt"
	"github.com/casalprim/doorbell-adapter/internal/status"
)

// integrationConfig loads a real YAML file so the flow under test includes
// configuration parsing. The door sensor is enabled, giving four inputs.
const integrationYAML = `mqtt:
  host: 192.168.1.50
  base_topic: casa/portero
  client_id: portero
pins:
  door_sensor: 2
timing:
  poll_ms: 100
  debounce_ms: 250
  pulse_ms: 800
heartbeat:
  interval_minutes: 0
discovery:
  enabled: false
`

func loadIntegrationConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(integrationYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

// fakeClock returns start, start+step, start+2*step, ... on successive calls.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

func startAdapter(t *testing.T, cfg *config.Config, samples [][]bool) (*gpio.FakeDevice, *mqtt.FakeClient, chan time.Time, chan os.Signal, chan error) {
	t.Helper()

	dev := gpio.NewFakeDevice(samples)
	cli := mqtt.NewFakeClient()
	tracker := status.NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), status.Config{
		Broker:    cfg.BrokerURL(),
		BaseTopic: cfg.MQTT.BaseTopic,
	})

	a, err := adapter.New(cfg, dev, cli, tracker)
	if err != nil {
		t.Fatalf("adapter.New: %v", err)
	}

	clock := fakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), 100*time.Millisecond)
	tick := make(chan time.Time)
	sig := make(chan os.Signal, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(clock, tick, sig)
	}()

	return dev, cli, tick, sig, errCh
}

// TestIntegrationRingFlow runs the complete flow from GPIO samples to MQTT
// using fakes: a visitor rings, the video feed comes up, and both signals
// are published on topics derived from the configured base topic.
func TestIntegrationRingFlow(t *testing.T) {
	cfg := loadIntegrationConfig(t)

	// Columns: video_sensor, video_button, door_button, door_sensor.
	samples := [][]bool{
		// Initial settle (250ms debounce needs 4 samples at 100ms)
		{false, false, false, false}, // t=100ms
		{false, false, false, false}, // t=200ms
		{false, false, false, false}, // t=300ms
		{false, false, false, false}, // t=400ms - settled, OFF published
		// Visitor presses the street button, video feed comes up
		{true, true, false, false}, // t=500ms - start transition
		{true, true, false, false}, // t=600ms
		{true, true, false, false}, // t=700ms
		{true, true, false, false}, // t=800ms - ON published (300ms >= 250ms)
	}

	_, cli, tick, sig, errCh := startAdapter(t, cfg, samples)

	for i := 0; i < len(samples); i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	for topic, want := range map[string][]string{
		"casa/portero/video_sensor/state": {"OFF", "ON"},
		"casa/portero/video_button/state": {"OFF", "ON"},
		"casa/portero/door_button/state":  {"OFF"},
		"casa/portero/door_sensor/state":  {"OFF"},
	} {
		got := cli.MessagesOn(topic)
		if len(got) != len(want) {
			t.Errorf("%s: got %v, want %v", topic, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s message %d: got %q, want %q", topic, i, got[i], want[i])
			}
		}
	}

	// Every state publish is retained at QoS 1 so subscribers see current
	// values immediately.
	for _, p := range cli.Publishes {
		if p.Topic == "casa/portero/system" {
			continue
		}
		if !p.Retained || p.QoS != 1 {
			t.Errorf("%s: got qos=%d retained=%v, want qos=1 retained", p.Topic, p.QoS, p.Retained)
		}
	}

	// Shutdown published a retained SHUTDOWN event with the signal name.
	sys := cli.MessagesOn("casa/portero/system")
	if len(sys) != 1 {
		t.Fatalf("system topic: got %d messages, want 1", len(sys))
	}
	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(sys[0]), &sj); err != nil {
		t.Fatalf("system payload: %v", err)
	}
	if sj.Status.Event != "SHUTDOWN" || sj.Status.Reason != "SIGTERM" {
		t.Errorf("system event: got %s/%s, want SHUTDOWN/SIGTERM", sj.Status.Event, sj.Status.Reason)
	}
	if len(sj.Status.Signals) != 4 {
		t.Errorf("system payload signals: got %d, want 4", len(sj.Status.Signals))
	}
}

// TestIntegrationOpenDoorFlow delivers a PRESS command over the fake broker
// and verifies the relay pulses for exactly the configured duration before
// being released again.
func TestIntegrationOpenDoorFlow(t *testing.T) {
	cfg := loadIntegrationConfig(t)
	samples := [][]bool{{false, false, false, false}}

	dev, cli, tick, sig, errCh := startAdapter(t, cfg, samples)

	for i := 0; i < 4; i++ {
		tick <- time.Time{}
	}
	if !cli.Deliver("casa/portero/door_button/command", "PRESS") {
		t.Fatal("no handler registered for command topic")
	}
	// Enough polls for the 800ms pulse to expire regardless of which tick
	// picked the command up.
	for i := 0; i < 9; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// Assert, expiry deassert, and the shutdown release.
	if len(dev.RelayWrites) != 3 {
		t.Fatalf("relay writes: got %v, want 3", dev.RelayWrites)
	}
	if !dev.RelayWrites[0].Asserted {
		t.Error("first relay write should assert")
	}
	if dev.RelayWrites[1].Asserted {
		t.Error("second relay write should deassert")
	}
	// 8 polls at 100ms between assert and deassert: exactly 800ms.
	if got := dev.RelayWrites[1].AfterRead - dev.RelayWrites[0].AfterRead; got != 8 {
		t.Errorf("pulse length: got %d polls, want 8", got)
	}
	if dev.RelayWrites[2].Asserted {
		t.Error("shutdown must release the relay")
	}
	if dev.RelayState {
		t.Error("relay left asserted after shutdown")
	}
}

// TestIntegrationDuplicateCommandIgnored delivers a second PRESS mid-pulse
// and verifies it neither restarts nor extends the pulse.
func TestIntegrationDuplicateCommandIgnored(t *testing.T) {
	cfg := loadIntegrationConfig(t)
	samples := [][]bool{{false, false, false, false}}

	dev, cli, tick, sig, errCh := startAdapter(t, cfg, samples)

	for i := 0; i < 4; i++ {
		tick <- time.Time{}
	}
	cli.Deliver("casa/portero/door_button/command", "PRESS")
	for i := 0; i < 3; i++ {
		tick <- time.Time{}
	}
	// 200-400ms into the 800ms pulse depending on pickup tick.
	cli.Deliver("casa/portero/door_button/command", "PRESS")
	for i := 0; i < 6; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGTERM
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(dev.RelayWrites) != 3 {
		t.Fatalf("relay writes: got %v, want assert+deassert+shutdown release", dev.RelayWrites)
	}
	if got := dev.RelayWrites[1].AfterRead - dev.RelayWrites[0].AfterRead; got != 8 {
		t.Errorf("pulse length: got %d polls, want 8 (duplicate must not extend)", got)
	}

	// The shutdown snapshot confirms a single pulse was counted.
	sys := cli.MessagesOn("casa/portero/system")
	if len(sys) != 1 {
		t.Fatalf("system topic: got %d messages, want 1", len(sys))
	}
	var sj status.StatusJSON
	if err := json.Unmarshal([]byte(sys[0]), &sj); err != nil {
		t.Fatalf("system payload: %v", err)
	}
	if sj.Status.Relay.Pulses != 1 {
		t.Errorf("pulses: got %d, want 1", sj.Status.Relay.Pulses)
	}
}

// TestIntegrationConnectFlow verifies that a connect callback fired before
// the loop starts results in availability and retained states being
// published once inputs settle.
func TestIntegrationConnectFlow(t *testing.T) {
	cfg := loadIntegrationConfig(t)
	samples := [][]bool{{false, true, false, false}} // video_button stuck high

	_, cli, tick, sig, errCh := startAdapter(t, cfg, samples)
	cli.FireConnect()

	for i := 0; i < 4; i++ {
		tick <- time.Time{}
	}
	sig <- syscall.SIGINT
	if err := <-errCh; err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	avail := cli.MessagesOn("casa/portero/availability")
	if len(avail) != 2 || avail[0] != "online" || avail[1] != "offline" {
		t.Errorf("availability: got %v, want [online offline]", avail)
	}

	// The stuck-high input settles ON; initial state is published as-is.
	got := cli.MessagesOn("casa/portero/video_button/state")
	if len(got) != 1 || got[0] != "ON" {
		t.Errorf("video_button: got %v, want [ON]", got)
	}

	// Command subscription released on shutdown.
	found := false
	for _, topic := range cli.Unsubscribed {
		if topic == "casa/portero/door_button/command" {
			found = true
		}
	}
	if !found {
		t.Error("expected unsubscribe from command topic")
	}
}
