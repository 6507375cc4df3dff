// Package gpio provides relay outputs and edge-watched inputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import (
	"errors"
	"time"
)

var (
	// ErrNotSupported is returned on platforms without the GPIO character device.
	ErrNotSupported = errors.New("gpio: not supported on this platform (requires Linux)")

	// ErrHardwareInit wraps every failure to acquire the chip or a line.
	// The daemon must not run with undefined pin state when it is returned.
	ErrHardwareInit = errors.New("gpio: hardware init failed")
)

// Output drives one relay line. ON is the energized state.
type Output interface {
	// Name is the logical name (UP, DOWN) used in logs.
	Name() string

	// Set writes the level synchronously.
	Set(on bool) error

	// On returns the last level written.
	On() bool
}

// Edge is one level change reported by an input line.
// Level is the raw level after the change: 0 = low, 1 = high.
type Edge struct {
	Offset int
	Level  int
	Time   time.Time
}

// EdgeHandler receives edges. It is called from the chip's event goroutine
// and must not block.
type EdgeHandler func(Edge)

// Chip hands out lines of one GPIO chip.
type Chip interface {
	// Output requests offset as an output driven low.
	Output(name string, offset int) (Output, error)

	// Watch requests offset as a pulled-up input and reports both edges.
	// glitch is the kernel debounce period; zero disables it.
	Watch(offset int, glitch time.Duration, handler EdgeHandler) error

	// Read returns the current raw level of a watched input.
	Read(offset int) (int, error)

	// Close releases every requested line. Outputs keep their level.
	Close() error
}

// Output names.
const (
	NameUp   = "UP"
	NameDown = "DOWN"
)
