package transport

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// Responder handles one command line and returns the raw response
// bytes, including any terminator. A nil return with nil error means
// the command produces no response.
type Responder interface {
	Handle(cmd string) ([]byte, error)
}

// ResponderFunc adapts a function to the Responder interface.
type ResponderFunc func(cmd string) ([]byte, error)

// Handle calls f.
func (f ResponderFunc) Handle(cmd string) ([]byte, error) {
	return f(cmd)
}

// InternalEndpoint dispatches commands in-process to a Responder,
// typically the local firmware command handler. It carries no I/O and
// never blocks on the wire.
type InternalEndpoint struct {
	name      string
	responder Responder
}

// NewInternalEndpoint returns an endpoint named name that dispatches
// to r.
func NewInternalEndpoint(name string, r Responder) *InternalEndpoint {
	return &InternalEndpoint{name: name, responder: r}
}

// Kind returns KindInternal.
func (e *InternalEndpoint) Kind() Kind {
	return KindInternal
}

// ID returns the endpoint name.
func (e *InternalEndpoint) ID() string {
	return e.name
}

// Connect returns a connection bound to the responder.
func (e *InternalEndpoint) Connect(ctx context.Context) (Conn, error) {
	if e.responder == nil {
		return nil, fmt.Errorf("internal endpoint %s has no responder: %w", e.name, ErrEndpointUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &internalConn{responder: e.responder}, nil
}

// internalConn dispatches each complete command line to the responder
// during Write and buffers the response for Read.
type internalConn struct {
	responder Responder

	mu      sync.Mutex
	wbuf    []byte
	rbuf    bytes.Buffer
	timeout time.Duration
	closed  bool
}

// Write appends p to the command buffer and dispatches every complete
// newline-terminated line to the responder. Responses accumulate in
// the read buffer.
func (c *internalConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, os.ErrClosed
	}

	c.wbuf = append(c.wbuf, p...)
	for {
		idx := bytes.IndexByte(c.wbuf, '\n')
		if idx < 0 {
			break
		}
		line := string(bytes.TrimRight(c.wbuf[:idx], "\r"))
		c.wbuf = c.wbuf[idx+1:]

		resp, err := c.responder.Handle(line)
		if err != nil {
			return len(p), err
		}
		c.rbuf.Write(resp)
	}
	return len(p), nil
}

// Read pops buffered response bytes. Dispatch is synchronous in Write,
// so an empty buffer cannot fill while Read waits; the configured
// timeout is still honoured so callers see the same timing shape as
// the wire transports. With no timeout set, an empty buffer fails
// immediately rather than blocking forever.
func (c *internalConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0, os.ErrClosed
	}
	if c.rbuf.Len() == 0 && c.timeout > 0 {
		d := c.timeout
		c.mu.Unlock()
		time.Sleep(d)
		c.mu.Lock()
	}
	defer c.mu.Unlock()
	if c.closed {
		return 0, os.ErrClosed
	}
	if c.rbuf.Len() == 0 {
		return 0, ErrReadTimeout
	}
	return c.rbuf.Read(p)
}

// SetReadTimeout sets how long an empty-buffer Read waits before
// reporting ErrReadTimeout.
func (c *internalConn) SetReadTimeout(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
	return nil
}

// Close releases the connection. Further reads and writes return
// os.ErrClosed. Close is idempotent.
func (c *internalConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.wbuf = nil
	c.rbuf.Reset()
	return nil
}
