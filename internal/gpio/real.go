//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealDevice drives actual hardware using the Linux GPIO character device.
type RealDevice struct {
	chip   *gpiocdev.Chip
	inputs []*gpiocdev.Line
	relay  *gpiocdev.Line
}

// NewRealDevice requests the input and relay lines on the given chip.
// Inputs are requested with pull-down to match Pi boot defaults; the
// intercom drives them high when active. The relay line is requested as
// an output at its inactive level, optionally active-low for relay boards
// that energise on a low input.
func NewRealDevice(chipName string, inputPins []int, relayPin int, relayActiveLow bool) (*RealDevice, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	d := &RealDevice{chip: chip}

	for _, pin := range inputPins {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
		if err != nil {
			d.release()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		d.inputs = append(d.inputs, line)
	}

	relayOpts := []gpiocdev.LineReqOption{gpiocdev.AsOutput(0)}
	if relayActiveLow {
		relayOpts = append(relayOpts, gpiocdev.AsActiveLow)
	}
	relay, err := chip.RequestLine(relayPin, relayOpts...)
	if err != nil {
		d.release()
		return nil, fmt.Errorf("request relay pin %d: %w", relayPin, err)
	}
	d.relay = relay

	return d, nil
}

// ReadInputs returns the logical level of every input line.
func (d *RealDevice) ReadInputs() ([]bool, error) {
	levels := make([]bool, len(d.inputs))
	for i, line := range d.inputs {
		raw, err := line.Value()
		if err != nil {
			return nil, fmt.Errorf("read input pin %d: %w", line.Offset(), err)
		}
		levels[i] = raw == 1
	}
	return levels, nil
}

// SetRelay drives the relay line. The kernel applies the active-low
// inversion, so value 1 always means "energised".
func (d *RealDevice) SetRelay(asserted bool) error {
	value := 0
	if asserted {
		value = 1
	}
	if err := d.relay.SetValue(value); err != nil {
		return fmt.Errorf("set relay pin %d: %w", d.relay.Offset(), err)
	}
	return nil
}

// Close deasserts the relay and releases GPIO resources.
// Inputs are reconfigured to input with pull-down (matching Pi boot
// defaults) before closing. The relay line is left driven at its inactive
// level instead: flipping an active-low relay line to a pulled-down input
// would energise the relay board on release.
func (d *RealDevice) Close() error {
	var errs []error

	if d.relay != nil {
		if err := d.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("deassert relay: %w", err))
		}
		if err := d.relay.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay pin: %w", err))
		}
		d.relay = nil
	}

	for _, line := range d.inputs {
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure input pin %d: %w", line.Offset(), err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pin %d: %w", line.Offset(), err))
		}
	}
	d.inputs = nil

	if d.chip != nil {
		if err := d.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		d.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// release closes whatever has been requested so far. Used on constructor
// failure, where partial state must not leak line handles.
func (d *RealDevice) release() {
	for _, line := range d.inputs {
		line.Close()
	}
	d.inputs = nil
	if d.relay != nil {
		d.relay.Close()
		d.relay = nil
	}
	if d.chip != nil {
		d.chip.Close()
		d.chip = nil
	}
}
