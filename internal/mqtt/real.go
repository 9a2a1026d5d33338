package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const (
	// connectTimeout bounds the wait for the initial connection. The
	// client keeps retrying in the background after it elapses.
	connectTimeout = 10 * time.Second

	// publishTimeout bounds the wait for broker acknowledgments.
	publishTimeout = 5 * time.Second

	// connectRetryInterval is the delay between connection attempts.
	connectRetryInterval = 5 * time.Second

	// maxReconnectInterval caps the auto-reconnect backoff.
	maxReconnectInterval = 60 * time.Second

	// keepAlive is the MQTT keepalive interval.
	keepAlive = 60 * time.Second

	// disconnectQuiesce is the time allowed for pending operations on
	// disconnect, in milliseconds.
	disconnectQuiesce = 1000
)

// Options configures the real client.
type Options struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string

	// WillTopic, when set, installs a retained "offline" last will so
	// the broker marks the adapter unavailable on an unclean disconnect.
	WillTopic string
}

// RealClient talks to an actual MQTT broker.
type RealClient struct {
	client paho.Client

	// subscriptions tracks handlers for re-subscription on reconnect.
	subscriptions map[string]subscription
	subMu         sync.Mutex

	onConnect  func()
	callbackMu sync.RWMutex
}

type subscription struct {
	qos     byte
	handler MessageHandler
}

// NewRealClient creates a client for the given broker. No connection is
// attempted until Connect is called, so callbacks and subscriptions can
// be registered first.
func NewRealClient(o Options) *RealClient {
	c := &RealClient{
		subscriptions: make(map[string]subscription),
	}

	opts := paho.NewClientOptions().
		AddBroker(o.BrokerURL).
		SetClientID(o.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(connectRetryInterval).
		SetMaxReconnectInterval(maxReconnectInterval).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}

	if o.WillTopic != "" {
		opts.SetWill(o.WillTopic, PayloadOffline, 1, true)
	}

	opts.SetOnConnectHandler(func(_ paho.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	})

	c.client = paho.NewClient(opts)
	return c
}

// Connect starts the connection. If the broker is unreachable the client
// keeps retrying in the background and Connect returns nil; the OnConnect
// callback fires once the connection comes up. A non-nil error means the
// connection can never succeed (e.g. malformed broker URL).
func (c *RealClient) Connect() error {
	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt broker not reachable yet, retrying in background")
		return nil
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

// handleConnect restores subscriptions and notifies the adapter. Runs on
// the paho network goroutine after every successful connect.
func (c *RealClient) handleConnect() {
	c.subMu.Lock()
	for topic, sub := range c.subscriptions {
		token := c.client.Subscribe(topic, sub.qos, wrapHandler(sub.handler))
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt resubscribe %s: %v", topic, ErrTimeout)
		} else if err := token.Error(); err != nil {
			log.Printf("mqtt resubscribe %s: %v", topic, err)
		}
	}
	c.subMu.Unlock()

	c.callbackMu.RLock()
	callback := c.onConnect
	c.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// Publish sends a message to the broker.
func (c *RealClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Subscribe registers a handler for a topic. The subscription is recorded
// first and established on the broker whenever the connection is up, so it
// survives both a late first connect and reconnects.
func (c *RealClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	c.subMu.Lock()
	c.subscriptions[topic] = subscription{qos: qos, handler: handler}
	c.subMu.Unlock()

	if !c.client.IsConnectionOpen() {
		return nil
	}

	token := c.client.Subscribe(topic, qos, wrapHandler(handler))
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("subscribe %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}

	return nil
}

// Unsubscribe removes a subscription.
func (c *RealClient) Unsubscribe(topic string) error {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()

	if !c.client.IsConnectionOpen() {
		return ErrNotConnected
	}

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("unsubscribe %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}

	return nil
}

// SetOnConnect registers the connect callback. Must be called before
// Connect to observe the initial connection.
func (c *RealClient) SetOnConnect(callback func()) {
	c.callbackMu.Lock()
	c.onConnect = callback
	c.callbackMu.Unlock()
}

// IsConnected reports whether the broker connection is up. This uses the
// strict check: a client mid-reconnect counts as disconnected.
func (c *RealClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (c *RealClient) Close() error {
	c.client.Disconnect(disconnectQuiesce)
	return nil
}

// wrapHandler adapts a MessageHandler to paho's callback shape with panic
// recovery; a handler panic must not take down the network goroutine.
func wrapHandler(handler MessageHandler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("mqtt handler panic on %s: %v", msg.Topic(), r)
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}
