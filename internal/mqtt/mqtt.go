// Package mqtt provides broker access with abstraction for testing.
// The real implementation wraps paho.mqtt.golang; the fake implementation
// records traffic for assertions.
package mqtt

import "errors"

// Standard payloads shared with Home Assistant.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
	PayloadPress   = "PRESS"
)

// Domain errors. Use errors.Is to check for these in calling code.
var (
	// ErrNotConnected is returned when a publish or unsubscribe is
	// attempted while the broker connection is down.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrTimeout is returned when the broker does not acknowledge an
	// operation in time.
	ErrTimeout = errors.New("mqtt: operation timed out")
)

// MessageHandler is the callback signature for received messages.
// Handlers are invoked on the client's network goroutine and must not
// block; hand the payload off to a channel and return.
type MessageHandler func(topic string, payload []byte)

// Client is the broker connection used by the adapter.
type Client interface {
	// Publish sends a message. Returns ErrNotConnected without blocking
	// when the connection is down.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic. If the connection is
	// not up yet the subscription is established when it comes up, and
	// re-established after every reconnect.
	Subscribe(topic string, qos byte, handler MessageHandler) error

	// Unsubscribe removes a subscription.
	Unsubscribe(topic string) error

	// SetOnConnect registers a callback invoked on the network goroutine
	// after every successful connect, initial and reconnects alike.
	SetOnConnect(callback func())

	// IsConnected reports whether the broker connection is up.
	IsConnected() bool

	// Close disconnects from the broker.
	Close() error
}
