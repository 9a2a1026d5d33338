// Package discovery builds the Home Assistant MQTT discovery document
// announcing the doorbell as one device with a component per signal.
//
// The device-based discovery format (a single retained config message
// under <prefix>/device/<id>/config) is used rather than per-component
// topics, so Home Assistant adds and removes the whole doorbell at once.
package discovery

import (
	"encoding/json"

	"github.com/casalprim/doorbell-adapter/internal/config"
	"github.com/casalprim/doorbell-adapter/internal/mqtt"
)

// Hardware identity published in the device block. The intercom board
// is fixed hardware, so these are constants rather than configuration.
const (
	manufacturer    = "PRIM, S.A."
	model           = "UltraGuard"
	softwareVersion = "1.0"
	serialNumber    = "1234567890"
	hardwareVersion = "v1"

	originName    = "PRIM System"
	originVersion = "0.1"
	originURL     = "https://blog.casalprim.xyz"
)

// document is the device-based discovery payload. Field names follow the
// abbreviated keys Home Assistant accepts in discovery messages.
type document struct {
	Device     deviceInfo           `json:"dev"`
	Origin     originInfo           `json:"o"`
	Components map[string]component `json:"cmps"`
	QoS        int                  `json:"qos"`
}

type deviceInfo struct {
	IDs          string `json:"ids"`
	Name         string `json:"name"`
	Manufacturer string `json:"mf"`
	Model        string `json:"mdl"`
	SWVersion    string `json:"sw"`
	SerialNumber string `json:"sn"`
	HWVersion    string `json:"hw"`
}

type originInfo struct {
	Name      string `json:"name"`
	SWVersion string `json:"sw"`
	URL       string `json:"url"`
}

// component describes one entity. The door button is a "button" entity
// so Home Assistant renders a press control wired to the relay; every
// other signal is a read-only binary_sensor.
type component struct {
	Platform          string `json:"p"`
	Name              string `json:"name"`
	StateTopic        string `json:"state_topic"`
	CommandTopic      string `json:"command_topic,omitempty"`
	AvailabilityTopic string `json:"availability_topic"`
	PayloadPress      string `json:"payload_press,omitempty"`
	ObjectID          string `json:"object_id"`
	UniqueID          string `json:"unique_id"`
}

// Topic returns the retained config topic for the device.
func Topic(prefix, deviceID string) string {
	return prefix + "/device/" + deviceID + "/config"
}

// Payload builds the discovery JSON for the configured signals.
func Payload(cfg *config.Config, topics mqtt.Topics) []byte {
	signals := cfg.InputSignals()
	cmps := make(map[string]component, len(signals))
	for _, sig := range signals {
		cmps[sig.Name] = buildComponent(cfg.Discovery.DeviceID, sig.Name, topics)
	}

	doc := document{
		Device: deviceInfo{
			IDs:          cfg.Discovery.DeviceID,
			Name:         cfg.Discovery.DeviceName,
			Manufacturer: manufacturer,
			Model:        model,
			SWVersion:    softwareVersion,
			SerialNumber: serialNumber,
			HWVersion:    hardwareVersion,
		},
		Origin: originInfo{
			Name:      originName,
			SWVersion: originVersion,
			URL:       originURL,
		},
		Components: cmps,
		QoS:        1,
	}

	data, _ := json.Marshal(doc)
	return data
}

func buildComponent(deviceID, signal string, topics mqtt.Topics) component {
	c := component{
		Platform:          "binary_sensor",
		Name:              displayName(signal),
		StateTopic:        topics.State(signal),
		AvailabilityTopic: topics.Availability(),
		ObjectID:          signal,
		UniqueID:          deviceID + "_" + signal,
	}
	if signal == config.SignalDoorButton {
		c.Platform = "button"
		c.CommandTopic = topics.Command(signal)
		c.PayloadPress = mqtt.PayloadPress
	}
	return c
}

// displayName turns a signal name into the entity name shown in Home
// Assistant, "door_button" becoming "Door Button".
func displayName(signal string) string {
	name := make([]byte, 0, len(signal))
	upper := true
	for i := 0; i < len(signal); i++ {
		ch := signal[i]
		if ch == '_' {
			name = append(name, ' ')
			upper = true
			continue
		}
		if upper && ch >= 'a' && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upper = false
		name = append(name, ch)
	}
	return string(name)
}
