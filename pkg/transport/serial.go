package transport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the line speed BenchWire oscilloscopes present on
// their USB-CDC port.
const DefaultBaudRate = 115200

// SerialEndpoint addresses an instrument on a USB-CDC serial port.
type SerialEndpoint struct {
	path string
	baud int
}

// NewSerialEndpoint returns an endpoint for the serial device at path.
// A baud of 0 selects DefaultBaudRate.
func NewSerialEndpoint(path string, baud int) *SerialEndpoint {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	return &SerialEndpoint{path: path, baud: baud}
}

// Kind returns KindSerial.
func (e *SerialEndpoint) Kind() Kind {
	return KindSerial
}

// ID returns the device path.
func (e *SerialEndpoint) ID() string {
	return e.path
}

// Connect opens the port at 8N1 and flushes stale input. Open failures
// wrap ErrEndpointUnavailable.
func (e *SerialEndpoint) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: e.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(e.path, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", e.path, ErrEndpointUnavailable, err)
	}

	// Bytes left over from a previous session would corrupt response
	// framing for the first command.
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", e.path, err)
	}

	return &serialConn{port: port}, nil
}

// serialConn adapts a serial.Port to the Conn interface.
type serialConn struct {
	port serial.Port
}

// Read reads from the port. The serial layer reports an expired read
// timeout as a zero-length read with nil error; that is mapped to
// ErrReadTimeout here.
func (c *serialConn) Read(p []byte) (int, error) {
	n, err := c.port.Read(p)
	if n == 0 && err == nil {
		return 0, ErrReadTimeout
	}
	return n, err
}

// Write writes to the port.
func (c *serialConn) Write(p []byte) (int, error) {
	return c.port.Write(p)
}

// SetReadTimeout bounds subsequent reads.
func (c *serialConn) SetReadTimeout(d time.Duration) error {
	return c.port.SetReadTimeout(d)
}

// Close closes the port.
func (c *serialConn) Close() error {
	return c.port.Close()
}
