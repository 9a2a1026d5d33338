package gpio

import "errors"

// FakeDevice is a test double that returns scripted input levels and
// records relay writes.
type FakeDevice struct {
	// Samples contains scripted input levels, one slice per poll.
	// Each call to ReadInputs consumes the next sample; once exhausted,
	// the last sample repeats.
	Samples [][]bool

	// index tracks current position in Samples
	index int

	// reads counts ReadInputs calls, for correlating relay writes
	reads int

	// RelayWrites records every SetRelay call in order.
	RelayWrites []RelayWrite

	// RelayState is the level of the most recent SetRelay call.
	RelayState bool

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadInputs
	ReadError error

	// RelayError, if set, will be returned by SetRelay
	RelayError error
}

// RelayWrite records a single SetRelay call. AfterRead is the number of
// ReadInputs calls that had completed when the write happened, so tests
// can pin a write to a specific poll.
type RelayWrite struct {
	Asserted  bool
	AfterRead int
}

// NewFakeDevice creates a FakeDevice with the given samples.
func NewFakeDevice(samples [][]bool) *FakeDevice {
	return &FakeDevice{Samples: samples}
}

// ReadInputs returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeDevice) ReadInputs() ([]bool, error) {
	if f.ReadError != nil {
		return nil, f.ReadError
	}

	if len(f.Samples) == 0 {
		return nil, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	f.reads++

	// Copy so callers cannot mutate the script
	levels := make([]bool, len(sample))
	copy(levels, sample)
	return levels, nil
}

// SetRelay records the write.
func (f *FakeDevice) SetRelay(asserted bool) error {
	if f.RelayError != nil {
		return f.RelayError
	}
	f.RelayWrites = append(f.RelayWrites, RelayWrite{Asserted: asserted, AfterRead: f.reads})
	f.RelayState = asserted
	return nil
}

// Close marks the device as closed.
func (f *FakeDevice) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the sample script and clears recorded state.
func (f *FakeDevice) Reset() {
	f.index = 0
	f.reads = 0
	f.RelayWrites = nil
	f.RelayState = false
	f.Closed = false
}
