package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// DefaultDialTimeout bounds socket connection establishment when the
// caller's context carries no deadline of its own.
const DefaultDialTimeout = 5 * time.Second

// SocketEndpoint addresses an instrument listening on a TCP port.
type SocketEndpoint struct {
	addr string
}

// NewSocketEndpoint returns an endpoint for the TCP address addr in
// host:port form.
func NewSocketEndpoint(addr string) *SocketEndpoint {
	return &SocketEndpoint{addr: addr}
}

// Kind returns KindSocket.
func (e *SocketEndpoint) Kind() Kind {
	return KindSocket
}

// ID returns the TCP address.
func (e *SocketEndpoint) ID() string {
	return e.addr
}

// Connect dials the instrument. Dial failures wrap
// ErrEndpointUnavailable.
func (e *SocketEndpoint) Connect(ctx context.Context) (Conn, error) {
	dialer := net.Dialer{Timeout: DefaultDialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", e.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %w", e.addr, ErrEndpointUnavailable, err)
	}
	return &socketConn{nc: nc}, nil
}

// socketConn adapts a net.Conn to the Conn interface, translating the
// read timeout into per-read deadlines.
type socketConn struct {
	nc      net.Conn
	timeout time.Duration
}

// Read reads from the socket, arming the configured read timeout as a
// deadline. A deadline miss returns ErrReadTimeout.
func (c *socketConn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.nc.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := c.nc.Read(p)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, fmt.Errorf("%w: %w", ErrReadTimeout, err)
		}
	}
	return n, err
}

// Write writes to the socket.
func (c *socketConn) Write(p []byte) (int, error) {
	return c.nc.Write(p)
}

// SetReadTimeout stores the timeout applied to subsequent reads. Zero
// disables the deadline.
func (c *socketConn) SetReadTimeout(d time.Duration) error {
	c.timeout = d
	return nil
}

// Close closes the socket.
func (c *socketConn) Close() error {
	return c.nc.Close()
}
