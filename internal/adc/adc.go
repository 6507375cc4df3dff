// Package adc reads the analog light sensor through an MCP3204 converter.
package adc

import (
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// MaxValue is the full scale reading of the 12 bit converter.
const MaxValue = 4095

// ErrChannel is returned for a channel outside 0..3.
var ErrChannel = errors.New("adc: channel out of range")

// Reader reads one converter channel.
type Reader interface {
	// Read returns the raw 12 bit value of channel.
	Read(channel int) (int, error)

	// Close releases the bus.
	Close() error
}

// MCP3204 is a Reader on a periph.io SPI port.
type MCP3204 struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn conn.Conn
}

// Open initializes the periph host drivers and connects to port.
// An empty port selects the first SPI port found.
func Open(port string) (*MCP3204, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	c, err := p.Connect(physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect spi port %q: %w", port, err)
	}
	return &MCP3204{port: p, conn: c}, nil
}

// Read runs one single-ended conversion.
func (m *MCP3204) Read(channel int) (int, error) {
	w, err := request(channel)
	if err != nil {
		return 0, err
	}
	r := make([]byte, len(w))

	m.mu.Lock()
	err = m.conn.Tx(w, r)
	m.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("spi transfer: %w", err)
	}
	return decode(r), nil
}

// Close releases the SPI port.
func (m *MCP3204) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.port == nil {
		return nil
	}
	err := m.port.Close()
	m.port = nil
	return err
}

// request builds the three byte command: start bit, single-ended mode,
// then the channel number split across the first two bytes.
func request(channel int) ([]byte, error) {
	if channel < 0 || channel > 3 {
		return nil, fmt.Errorf("%w: %d", ErrChannel, channel)
	}
	ch := byte(channel)
	return []byte{0x06 | ch>>2, (ch & 0x03) << 6, 0x00}, nil
}

// decode extracts the 12 bit result from the response.
func decode(r []byte) int {
	return int(r[1]&0x0F)<<8 | int(r[2])
}
