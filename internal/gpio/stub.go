//go:build !linux

package gpio

import (
	"fmt"
	"time"
)

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name string) (*RealChip, error) {
	return nil, fmt.Errorf("%w: %s: %w", ErrHardwareInit, name, ErrNotSupported)
}

// Output is not implemented on non-Linux platforms.
func (c *RealChip) Output(name string, offset int) (Output, error) {
	return nil, ErrNotSupported
}

// Watch is not implemented on non-Linux platforms.
func (c *RealChip) Watch(offset int, glitch time.Duration, handler EdgeHandler) error {
	return ErrNotSupported
}

// Read is not implemented on non-Linux platforms.
func (c *RealChip) Read(offset int) (int, error) {
	return 0, ErrNotSupported
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}
