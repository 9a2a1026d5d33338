package mqtt

// Topics builds the adapter's topic strings under a configurable base
// topic, e.g. home/doorbell.
//
// Layout:
//
//	<base>/<signal>/state    retained ON/OFF per input signal
//	<base>/door_button/command   PRESS opens the door
//	<base>/availability      retained online/offline, also the LWT
//	<base>/system            JSON lifecycle events
type Topics struct {
	base string
}

// NewTopics creates a topic builder for the given base topic.
func NewTopics(base string) Topics {
	return Topics{base: base}
}

// State returns the state topic for a signal.
func (t Topics) State(signal string) string {
	return t.base + "/" + signal + "/state"
}

// Command returns the command topic for a signal.
func (t Topics) Command(signal string) string {
	return t.base + "/" + signal + "/command"
}

// Availability returns the availability topic.
func (t Topics) Availability() string {
	return t.base + "/availability"
}

// System returns the lifecycle event topic.
func (t Topics) System() string {
	return t.base + "/system"
}
