// Package adapter wires GPIO sampling, debouncing, the relay pulse and
// MQTT publishing into a single control loop.
//
// All hardware and broker I/O happens on the loop goroutine. Broker
// callbacks (connects, incoming commands) only enqueue into buffered
// channels that the loop drains at the start of each tick, so every
// state change has a single writer.
package adapter

import (
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/casalprim/doorbell-adapter/internal/config"
	"github.com/casalprim/doorbell-adapter/internal/discovery"
	"github.com/casalprim/doorbell-adapter/internal/gpio"
	"github.com/casalprim/doorbell-adapter/internal/logic"
	"github.com/casalprim/doorbell-adapter/internal/mqtt"
	"github.com/casalprim/doorbell-adapter/internal/status"
	"github.com/casalprim/doorbell-adapter/internal/sysinfo"
)

// commandQueueSize bounds how many unprocessed commands can pile up
// between polls. Commands beyond that are dropped, not queued: replaying
// a burst of stale door-open requests is worse than losing them.
const commandQueueSize = 16

// Adapter owns the control loop between the doorbell hardware and the
// MQTT broker.
type Adapter struct {
	cfg     *config.Config
	device  gpio.Device
	client  mqtt.Client
	tracker *status.Tracker
	topics  mqtt.Topics

	signals []config.Signal

	// lastReported holds the last state successfully published per
	// signal. A publish happens only when the debounced state differs,
	// so failed publishes retry on the next tick.
	lastReported []logic.State

	commands chan string
	conns    chan struct{}

	monitor *logic.Monitor
	pulse   *logic.Pulse

	connectedOnce bool

	// onlineAnnounced tracks whether the retained availability "online"
	// for the current session reached the broker. While it is false the
	// broker may still be serving the will's "offline".
	onlineAnnounced bool
}

// New creates an Adapter and registers its broker callbacks. The command
// subscription is registered before the client connects so it takes
// effect on the first connect.
func New(cfg *config.Config, device gpio.Device, client mqtt.Client, tracker *status.Tracker) (*Adapter, error) {
	a := &Adapter{
		cfg:      cfg,
		device:   device,
		client:   client,
		tracker:  tracker,
		topics:   mqtt.NewTopics(cfg.MQTT.BaseTopic),
		signals:  cfg.InputSignals(),
		commands: make(chan string, commandQueueSize),
		conns:    make(chan struct{}, 1),
	}
	a.lastReported = make([]logic.State, len(a.signals))

	client.SetOnConnect(a.notifyConnect)
	if err := client.Subscribe(a.topics.Command(config.SignalDoorButton), 1, a.enqueueCommand); err != nil {
		return nil, fmt.Errorf("subscribing to command topic: %w", err)
	}

	return a, nil
}

// notifyConnect runs on the broker client's goroutine. Connects coalesce:
// the loop only needs to know that a (re)connect happened since last tick.
func (a *Adapter) notifyConnect() {
	select {
	case a.conns <- struct{}{}:
	default:
	}
}

// enqueueCommand runs on the broker client's goroutine.
func (a *Adapter) enqueueCommand(topic string, payload []byte) {
	select {
	case a.commands <- string(payload):
	default:
		log.Printf("command queue full, dropping %q", payload)
	}
}

// Run executes the control loop until a signal arrives. The clock and
// channels are injected so tests can drive the loop deterministically.
func (a *Adapter) Run(now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	a.start(now())

	for {
		select {
		case s := <-sig:
			return a.shutdown(s)

		case <-tick:
			a.tickOnce(now())
		}
	}
}

// start initializes the per-run state machines.
func (a *Adapter) start(t time.Time) {
	a.monitor = logic.NewMonitor(len(a.signals), a.cfg.Debounce(), t)
	a.pulse = logic.NewPulse(a.cfg.Pulse())
}

// tickOnce runs one poll cycle. Pulse expiry is checked before queued
// commands so a command observed on the expiry tick starts a fresh pulse
// instead of extending the finished one.
func (a *Adapter) tickOnce(t time.Time) {
	a.drainConnects()

	if a.pulse.Expire(t) {
		if err := a.device.SetRelay(false); err != nil {
			log.Printf("relay deassert error: %v", err)
		}
		log.Printf("relay pulse complete")
	}

	a.drainCommands(t)

	levels, err := a.device.ReadInputs()
	if err != nil {
		log.Printf("gpio read error: %v", err)
		return
	}
	if len(levels) != len(a.signals) {
		log.Printf("gpio read returned %d levels, want %d", len(levels), len(a.signals))
		return
	}

	events := a.monitor.Process(levels, t)
	for _, ev := range events {
		name := a.signals[ev.Signal].Name
		if ev.Initial {
			log.Printf("signal %s settled: %s", name, ev.State)
		} else {
			log.Printf("event: %s %s", name, ev.State)
		}
	}

	if a.connectedOnce && !a.onlineAnnounced {
		a.announceOnline()
	}
	a.publishStates()

	if hb := a.monitor.CheckHeartbeat(t, a.cfg.HeartbeatInterval()); hb != nil {
		log.Print(heartbeatLine(a.signals, hb))
		a.tracker.SetHost(CollectHost())
		a.updateTracker()
		a.publishSystemEvent("HEARTBEAT", "", false)
	}

	a.updateTracker()
}

// drainConnects processes at most one coalesced connect notification.
func (a *Adapter) drainConnects() {
	select {
	case <-a.conns:
		a.handleConnect()
	default:
	}
}

// handleConnect publishes everything a broker needs after a session is
// established: availability, the discovery document and the retained
// state of every settled signal.
func (a *Adapter) handleConnect() {
	reconnect := a.connectedOnce
	a.connectedOnce = true
	if reconnect {
		log.Printf("mqtt reconnected, republishing state")
	} else {
		log.Printf("mqtt connected")
	}

	a.onlineAnnounced = false
	a.announceOnline()

	if a.cfg.Discovery.Enabled {
		topic := discovery.Topic(a.cfg.Discovery.Prefix, a.cfg.Discovery.DeviceID)
		if err := a.client.Publish(topic, discovery.Payload(a.cfg, a.topics), 1, true); err != nil {
			log.Printf("discovery publish error: %v", err)
		} else {
			log.Printf("discovery published on %s", topic)
		}
	}

	// Republish unconditionally: the broker's retained values may be
	// stale or gone after a broker restart.
	for i, st := range a.monitor.States() {
		if st == "" {
			continue
		}
		name := a.signals[i].Name
		if err := a.client.Publish(a.topics.State(name), []byte(st), 1, true); err != nil {
			log.Printf("state republish error (%s): %v", name, err)
			// lastReported still matches the live state on this path, so
			// the diff-driven retry would never fire. Forget it.
			a.lastReported[i] = ""
			continue
		}
		a.lastReported[i] = st
	}

	if reconnect {
		a.updateTracker()
		a.publishSystemEvent("RECONNECTED", "", false)
	}
}

// announceOnline publishes the retained availability marker. On failure
// onlineAnnounced stays false and the next tick retries.
func (a *Adapter) announceOnline() {
	if !a.client.IsConnected() {
		return
	}
	if err := a.client.Publish(a.topics.Availability(), []byte(mqtt.PayloadOnline), 1, true); err != nil {
		log.Printf("availability publish error: %v", err)
		return
	}
	a.onlineAnnounced = true
}

// drainCommands processes every command queued since the previous tick.
func (a *Adapter) drainCommands(t time.Time) {
	for {
		select {
		case payload := <-a.commands:
			a.handleCommand(payload, t)
		default:
			return
		}
	}
}

func (a *Adapter) handleCommand(payload string, t time.Time) {
	if payload != mqtt.PayloadPress {
		log.Printf("unknown command received: %q", payload)
		return
	}
	if !a.pulse.Trigger(t) {
		log.Printf("open door command ignored, pulse active for another %v", a.pulse.Remaining(t))
		return
	}
	log.Printf("open door command received, pulsing relay for %v", a.cfg.Pulse())
	if err := a.device.SetRelay(true); err != nil {
		// Pulse stays active so the expiry deassert still runs; a relay
		// stuck asserted is the failure that matters.
		log.Printf("relay assert error: %v", err)
	}
}

// publishStates publishes every settled signal whose debounced state
// differs from the last reported one. lastReported only advances on a
// successful publish, so publish failures retry on the next tick and
// states changed while disconnected go out once the session is back.
func (a *Adapter) publishStates() {
	if !a.client.IsConnected() {
		return
	}
	for i, st := range a.monitor.States() {
		if st == "" || st == a.lastReported[i] {
			continue
		}
		name := a.signals[i].Name
		if err := a.client.Publish(a.topics.State(name), []byte(st), 1, true); err != nil {
			log.Printf("state publish error (%s): %v", name, err)
			continue
		}
		a.lastReported[i] = st
	}
}

func (a *Adapter) publishSystemEvent(event, reason string, retained bool) {
	snap := a.tracker.Snapshot()
	payload := status.FormatStatusEvent(snap, event, reason)
	if err := a.client.Publish(a.topics.System(), payload, 1, retained); err != nil {
		log.Printf("%s event publish error: %v", event, err)
	} else {
		log.Printf("published %s event", event)
	}
}

// shutdown deasserts the relay before anything that could fail, then
// announces the exit on the bus.
func (a *Adapter) shutdown(s os.Signal) error {
	log.Printf("received %v, shutting down", s)
	signalName := "UNKNOWN"
	if s == syscall.SIGINT {
		signalName = "SIGINT"
	} else if s == syscall.SIGTERM {
		signalName = "SIGTERM"
	}

	a.pulse.ForceIdle()
	if err := a.device.SetRelay(false); err != nil {
		log.Printf("relay deassert error: %v", err)
	}

	a.updateTracker()
	a.publishSystemEvent("SHUTDOWN", signalName, true)

	if err := a.client.Publish(a.topics.Availability(), []byte(mqtt.PayloadOffline), 1, true); err != nil {
		log.Printf("availability publish error: %v", err)
	}

	if err := a.client.Unsubscribe(a.topics.Command(config.SignalDoorButton)); err != nil {
		log.Printf("unsubscribe error: %v", err)
	}

	return nil
}

// updateTracker pushes the current loop state to the status tracker for
// the HTTP handlers and system events.
func (a *Adapter) updateTracker() {
	states := a.monitor.States()
	counts := a.monitor.CountsSnapshot()
	sigs := make([]status.SignalStatus, len(a.signals))
	for i, s := range a.signals {
		sigs[i] = status.SignalStatus{Name: s.Name, State: states[i], On: counts[i].On, Off: counts[i].Off}
	}
	a.tracker.Update(sigs, a.monitor.Ready())
	a.tracker.SetPulse(a.pulse.Active(), a.pulse.Count())
	a.tracker.SetMQTTConnected(a.client.IsConnected())
}

// heartbeatLine renders the heartbeat log entry with the per-signal
// transition counts since startup.
func heartbeatLine(signals []config.Signal, hb *logic.HeartbeatData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "heartbeat: uptime=%v", hb.Uptime)
	for i, s := range signals {
		fmt.Fprintf(&b, " %s_on=%d %s_off=%d", s.Name, hb.Counts[i].On, s.Name, hb.Counts[i].Off)
	}
	return b.String()
}

// CollectHost gathers host health figures in the tracker's shape.
func CollectHost() *status.HostInfo {
	hi := sysinfo.Collect()
	return &status.HostInfo{
		Hostname:       hi.Hostname,
		UptimeSeconds:  hi.UptimeSeconds,
		Load1:          hi.Load1,
		MemUsedPercent: hi.MemUsedPercent,
		CPUTempC:       hi.CPUTempC,
	}
}
