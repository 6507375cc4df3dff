package adc

import "sync"

// FakeReader is a test double that returns scripted values.
type FakeReader struct {
	mu sync.Mutex

	// Values contains the scripted readings. Each Read consumes the next one
	// and the last value repeats once they are exhausted.
	Values []int
	index  int

	// ReadError, if set, is returned by Read.
	ReadError error

	// Channels records the channel of every Read.
	Channels []int

	Closed bool
}

// NewFakeReader creates a FakeReader with the given values.
func NewFakeReader(values ...int) *FakeReader {
	return &FakeReader{Values: values}
}

// Read returns the next scripted value.
func (f *FakeReader) Read(channel int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Channels = append(f.Channels, channel)
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, nil
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
