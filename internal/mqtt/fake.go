package mqtt

// FakeClient records broker traffic for test assertions.
type FakeClient struct {
	// Publishes contains every message passed to Publish, in order.
	Publishes []Publication

	// Handlers holds registered subscriptions by topic.
	Handlers map[string]MessageHandler

	// SubscribedQoS records the QoS requested per topic.
	SubscribedQoS map[string]byte

	// Unsubscribed contains topics passed to Unsubscribe, in order.
	Unsubscribed []string

	// Connected controls the return value of IsConnected and whether
	// Publish succeeds.
	Connected bool

	// PublishError, if set, will be returned by Publish even while
	// connected.
	PublishError error

	// SubscribeError, if set, will be returned by Subscribe.
	SubscribeError error

	// Closed tracks if Close was called.
	Closed bool

	onConnect func()
}

// Publication is a single recorded Publish call.
type Publication struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// NewFakeClient creates a FakeClient that reports connected.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Handlers:      make(map[string]MessageHandler),
		SubscribedQoS: make(map[string]byte),
		Connected:     true,
	}
}

// Publish records the message. Returns ErrNotConnected while disconnected,
// mirroring the real client's fast path.
func (f *FakeClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if !f.Connected {
		return ErrNotConnected
	}
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Publishes = append(f.Publishes, Publication{
		Topic:    topic,
		Payload:  string(payload),
		QoS:      qos,
		Retained: retained,
	})
	return nil
}

// Subscribe records the handler.
func (f *FakeClient) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if f.SubscribeError != nil {
		return f.SubscribeError
	}
	f.Handlers[topic] = handler
	f.SubscribedQoS[topic] = qos
	return nil
}

// Unsubscribe records the topic and drops its handler.
func (f *FakeClient) Unsubscribe(topic string) error {
	f.Unsubscribed = append(f.Unsubscribed, topic)
	delete(f.Handlers, topic)
	delete(f.SubscribedQoS, topic)
	return nil
}

// SetOnConnect stores the callback for FireConnect.
func (f *FakeClient) SetOnConnect(callback func()) {
	f.onConnect = callback
}

// IsConnected reports the scripted connection state.
func (f *FakeClient) IsConnected() bool {
	return f.Connected
}

// Close marks the client as closed.
func (f *FakeClient) Close() error {
	f.Closed = true
	return nil
}

// Deliver invokes the handler subscribed to topic, simulating an inbound
// message from the broker.
func (f *FakeClient) Deliver(topic string, payload string) bool {
	handler, ok := f.Handlers[topic]
	if !ok {
		return false
	}
	handler(topic, []byte(payload))
	return true
}

// FireConnect invokes the registered connect callback, simulating the
// broker connection coming up.
func (f *FakeClient) FireConnect() {
	if f.onConnect != nil {
		f.onConnect()
	}
}

// MessagesOn returns the payloads published to a topic, in order.
func (f *FakeClient) MessagesOn(topic string) []string {
	var payloads []string
	for _, p := range f.Publishes {
		if p.Topic == topic {
			payloads = append(payloads, p.Payload)
		}
	}
	return payloads
}

// Reset clears recorded traffic.
func (f *FakeClient) Reset() {
	f.Publishes = nil
	f.Unsubscribed = nil
	f.Handlers = make(map[string]MessageHandler)
	f.SubscribedQoS = make(map[string]byte)
	f.PublishError = nil
	f.SubscribeError = nil
	f.Closed = false
	f.Connected = true
}
