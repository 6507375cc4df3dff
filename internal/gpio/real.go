//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "jalousie-io"

// RealChip drives GPIO lines on actual hardware using the Linux GPIO character device.
type RealChip struct {
	chip *gpiocdev.Chip

	mu      sync.Mutex
	outputs []*RealOutput
	inputs  map[int]*gpiocdev.Line
}

// NewRealChip opens the named chip, e.g. "gpiochip0".
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("%w: open gpio chip %s: %w", ErrHardwareInit, name, err)
	}
	return &RealChip{
		chip:   chip,
		inputs: make(map[int]*gpiocdev.Line),
	}, nil
}

// Output requests offset as an output, initially low.
func (c *RealChip) Output(name string, offset int) (Output, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("%w: request %s pin %d: %w", ErrHardwareInit, name, offset, err)
	}
	out := &RealOutput{name: name, line: line}

	c.mu.Lock()
	c.outputs = append(c.outputs, out)
	c.mu.Unlock()
	return out, nil
}

// Watch requests offset as an input with pull-up and both-edge events.
// The handler runs on the gpiocdev event goroutine.
func (c *RealChip) Watch(offset int, glitch time.Duration, handler EdgeHandler) error {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			level := 1
			if evt.Type == gpiocdev.LineEventFallingEdge {
				level = 0
			}
			handler(Edge{Offset: evt.Offset, Level: level, Time: time.Now()})
		}),
	}
	if glitch > 0 {
		opts = append(opts, gpiocdev.WithDebounce(glitch))
	}

	line, err := c.chip.RequestLine(offset, opts...)
	if err != nil {
		return fmt.Errorf("%w: watch pin %d: %w", ErrHardwareInit, offset, err)
	}

	c.mu.Lock()
	c.inputs[offset] = line
	c.mu.Unlock()
	return nil
}

// Read returns the current raw level of a watched input.
func (c *RealChip) Read(offset int) (int, error) {
	c.mu.Lock()
	line, ok := c.inputs[offset]
	c.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("read pin %d: not watched", offset)
	}
	v, err := line.Value()
	if err != nil {
		return 0, fmt.Errorf("read pin %d: %w", offset, err)
	}
	return v, nil
}

// Close releases GPIO resources.
// Inputs are closed first so no handler fires while outputs are released.
// Outputs are released without writing; the kernel keeps the last level.
func (c *RealChip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for offset, line := range c.inputs {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input pin %d: %w", offset, err))
		}
	}
	c.inputs = map[int]*gpiocdev.Line{}

	for _, out := range c.outputs {
		if err := out.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", out.name, err))
		}
	}
	c.outputs = nil

	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		c.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealOutput is one requested output line.
type RealOutput struct {
	name string
	line *gpiocdev.Line

	mu sync.Mutex
	on bool
}

// Name returns the logical output name.
func (o *RealOutput) Name() string { return o.name }

// Set writes the line value.
func (o *RealOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("write %s pin: %w", o.name, err)
	}
	o.on = on
	return nil
}

// On returns the last level written.
func (o *RealOutput) On() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.on
}
