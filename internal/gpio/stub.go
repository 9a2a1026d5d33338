//go:build !linux

package gpio

import "errors"

// RealDevice is not available on non-Linux platforms.
type RealDevice struct{}

// NewRealDevice returns an error on non-Linux platforms.
func NewRealDevice(chipName string, inputPins []int, relayPin int, relayActiveLow bool) (*RealDevice, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadInputs is not implemented on non-Linux platforms.
func (d *RealDevice) ReadInputs() ([]bool, error) {
	return nil, errors.New("gpio: not supported")
}

// SetRelay is not implemented on non-Linux platforms.
func (d *RealDevice) SetRelay(asserted bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (d *RealDevice) Close() error {
	return nil
}
