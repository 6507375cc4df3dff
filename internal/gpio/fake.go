package gpio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Write is one recorded output write.
type Write struct {
	Name string
	On   bool
	At   time.Time
}

func (w Write) String() string {
	if w.On {
		return w.Name + " ON"
	}
	return w.Name + " OFF"
}

// WriteLog records writes across several fake outputs in call order.
type WriteLog struct {
	mu     sync.Mutex
	writes []Write
}

func (l *WriteLog) add(w Write) {
	l.mu.Lock()
	l.writes = append(l.writes, w)
	l.mu.Unlock()
}

// Writes returns a copy of the recorded writes.
func (l *WriteLog) Writes() []Write {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Write, len(l.writes))
	copy(out, l.writes)
	return out
}

// Strings returns the recorded writes as "NAME ON|OFF".
func (l *WriteLog) Strings() []string {
	writes := l.Writes()
	out := make([]string, len(writes))
	for i, w := range writes {
		out[i] = w.String()
	}
	return out
}

// Reset drops all recorded writes.
func (l *WriteLog) Reset() {
	l.mu.Lock()
	l.writes = nil
	l.mu.Unlock()
}

// FakeOutput is a test double that records writes.
type FakeOutput struct {
	name string
	log  *WriteLog

	mu sync.Mutex
	on bool
	// SetError, if set, is returned by Set and the level is left unchanged.
	SetError error
}

// NewFakeOutput creates an output recording into log. A nil log gets a private one.
func NewFakeOutput(name string, log *WriteLog) *FakeOutput {
	if log == nil {
		log = &WriteLog{}
	}
	return &FakeOutput{name: name, log: log}
}

// Name returns the logical output name.
func (f *FakeOutput) Name() string { return f.name }

// Set records the write.
func (f *FakeOutput) Set(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.on = on
	f.log.add(Write{Name: f.name, On: on, At: time.Now()})
	return nil
}

// On returns the last level written.
func (f *FakeOutput) On() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.on
}

// Log returns the log this output records into.
func (f *FakeOutput) Log() *WriteLog { return f.log }

// FakeChip is a test double for Chip. Inputs rest high (pulled up).
type FakeChip struct {
	// Log records writes of every output handed out by the chip.
	Log *WriteLog

	mu       sync.Mutex
	outputs  map[int]*FakeOutput
	handlers map[int]EdgeHandler
	levels   map[int]int
	glitch   map[int]time.Duration
	closed   bool

	// OutputError and WatchError, if set, fail the matching request.
	OutputError error
	WatchError  error
}

// NewFakeChip creates an empty fake chip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		Log:      &WriteLog{},
		outputs:  make(map[int]*FakeOutput),
		handlers: make(map[int]EdgeHandler),
		levels:   make(map[int]int),
		glitch:   make(map[int]time.Duration),
	}
}

// Output hands out a recording output for offset.
func (c *FakeChip) Output(name string, offset int) (Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.OutputError != nil {
		return nil, fmt.Errorf("%w: request %s pin %d: %w", ErrHardwareInit, name, offset, c.OutputError)
	}
	if _, dup := c.outputs[offset]; dup {
		return nil, fmt.Errorf("%w: pin %d already requested", ErrHardwareInit, offset)
	}
	out := NewFakeOutput(name, c.Log)
	c.outputs[offset] = out
	return out, nil
}

// Watch registers handler for offset.
func (c *FakeChip) Watch(offset int, glitch time.Duration, handler EdgeHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.WatchError != nil {
		return fmt.Errorf("%w: watch pin %d: %w", ErrHardwareInit, offset, c.WatchError)
	}
	if _, dup := c.handlers[offset]; dup {
		return fmt.Errorf("%w: pin %d already watched", ErrHardwareInit, offset)
	}
	c.handlers[offset] = handler
	c.levels[offset] = 1
	c.glitch[offset] = glitch
	return nil
}

// Read returns the simulated level of a watched input.
func (c *FakeChip) Read(offset int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.levels[offset]
	if !ok {
		return 0, fmt.Errorf("read pin %d: not watched", offset)
	}
	return v, nil
}

// Close marks the chip closed and drops all handlers.
func (c *FakeChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.handlers = make(map[int]EdgeHandler)
	return nil
}

// Closed reports whether Close was called.
func (c *FakeChip) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// FakeOutputAt returns the output requested on offset, or nil.
func (c *FakeChip) FakeOutputAt(offset int) *FakeOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputs[offset]
}

// Glitch returns the debounce period requested for a watched input.
func (c *FakeChip) Glitch(offset int) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.glitch[offset]
}

// Trigger simulates an edge on offset. The handler runs on the caller's goroutine.
func (c *FakeChip) Trigger(offset, level int, at time.Time) error {
	c.mu.Lock()
	h, ok := c.handlers[offset]
	if ok {
		c.levels[offset] = level
	}
	c.mu.Unlock()
	if !ok {
		return errors.New("no handler on pin")
	}
	h(Edge{Offset: offset, Level: level, Time: at})
	return nil
}
