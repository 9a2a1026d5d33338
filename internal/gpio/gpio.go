// Package gpio provides access to the intercom pins with hardware
// abstraction. The real implementation uses the Linux GPIO character
// device. The fake implementation allows testing without hardware.
package gpio

// Device reads the intercom input signals and drives the door opener relay.
type Device interface {
	// ReadInputs returns the logical level of every input, in the order
	// the pins were requested. Raw high (1) means active: the intercom
	// drives each line high while its signal is present.
	ReadInputs() ([]bool, error)

	// SetRelay asserts or deasserts the door opener relay. Active-low
	// wiring is handled inside the implementation; true always means
	// "energise the relay".
	SetRelay(asserted bool) error

	// Close deasserts the relay and releases GPIO resources.
	Close() error
}
