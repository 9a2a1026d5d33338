// Command doorbell-adapter bridges an intercom wired to GPIO pins onto MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casalprim/doorbell-adapter/internal/adapter"
	"github.com/casalprim/doorbell-adapter/internal/config"
	"github.com/casalprim/doorbell-adapter/internal/gpio"
	"github.com/casalprim/doorbell-adapter/internal/mqtt"
	"github.com/casalprim/doorbell-adapter/internal/status"
	"github.com/casalprim/doorbell-adapter/internal/web"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to YAML configuration file")
	printState := flag.Bool("print-state", false, "Print current input states and exit")

	flag.Parse()

	if err := run(*configPath, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath string, printState bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Initialize GPIO
	signals := cfg.InputSignals()
	pins := make([]int, len(signals))
	for i, s := range signals {
		pins[i] = s.Pin
	}
	device, err := gpio.NewRealDevice(cfg.Pins.Chip, pins, cfg.Pins.Relay, cfg.Pins.RelayActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer device.Close()

	// Print state mode
	if printState {
		levels, err := device.ReadInputs()
		if err != nil {
			return fmt.Errorf("read gpio: %w", err)
		}
		for i, s := range signals {
			fmt.Printf("%s: %s\n", s.Name, stateString(levels[i]))
		}
		return nil
	}

	// Initialize MQTT. The adapter registers its subscriptions and the
	// connect callback before Connect so the initial connection is observed.
	topics := mqtt.NewTopics(cfg.MQTT.BaseTopic)
	client := mqtt.NewRealClient(mqtt.Options{
		BrokerURL: cfg.BrokerURL(),
		ClientID:  cfg.MQTT.ClientID,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		WillTopic: topics.Availability(),
	})
	defer client.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      int64(cfg.Timing.PollMs),
		DebounceMs:  int64(cfg.Timing.DebounceMs),
		PulseMs:     int64(cfg.Timing.PulseMs),
		HeartbeatMs: cfg.HeartbeatInterval().Milliseconds(),
		Broker:      cfg.BrokerURL(),
		BaseTopic:   cfg.MQTT.BaseTopic,
		HTTPAddr:    cfg.HTTP.Addr,
	})
	tracker.SetHost(adapter.CollectHost())

	a, err := adapter.New(cfg, device, client, tracker)
	if err != nil {
		return fmt.Errorf("init adapter: %w", err)
	}

	if err := client.Connect(); err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}

	// Publish startup event with full status snapshot. Best effort: if the
	// broker is still unreachable the connect flow publishes availability
	// and states once it comes up.
	payload := status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", "")
	if err := client.Publish(topics.System(), payload, 1, true); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Printf("started: poll=%v debounce=%v pulse=%v broker=%s heartbeat=%v",
		cfg.Poll(), cfg.Debounce(), cfg.Pulse(), cfg.BrokerURL(), cfg.HeartbeatInterval())

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return a.Run(time.Now, ticker.C, sigCh)
}

func stateString(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
