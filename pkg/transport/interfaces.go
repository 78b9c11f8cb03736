package transport

import (
	"context"
	"errors"
	"io"
	"time"
)

// Kind identifies the transport family of an endpoint.
type Kind uint8

const (
	// KindInternal is in-process dispatch to the local firmware.
	KindInternal Kind = 0
	// KindSerial is a USB-CDC serial line.
	KindSerial Kind = 1
	// KindSocket is a TCP connection.
	KindSocket Kind = 2
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInternal:
		return "internal"
	case KindSerial:
		return "serial"
	case KindSocket:
		return "socket"
	default:
		return "unknown"
	}
}

// Endpoint is an address a session can connect to. Endpoints are cheap
// descriptors; no I/O happens before Connect.
type Endpoint interface {
	// Kind returns the transport family.
	Kind() Kind

	// ID returns the stable endpoint address: a device path for serial,
	// host:port for sockets, a name for internal endpoints. Two
	// endpoints with the same ID address the same device.
	ID() string

	// Connect opens the byte stream. The context bounds connection
	// establishment only, not the life of the returned Conn.
	Connect(ctx context.Context) (Conn, error)
}

// Conn is an open byte stream to an instrument.
// Implemented by internalConn, serialConn and socketConn.
type Conn interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds subsequent Read calls. An expired read
	// returns ErrReadTimeout with no data.
	SetReadTimeout(d time.Duration) error
}

// Sentinel errors returned by transport operations.
var (
	// ErrEndpointUnavailable indicates the endpoint could not be
	// opened: port missing, connection refused, or no responder bound.
	ErrEndpointUnavailable = errors.New("endpoint unavailable")

	// ErrReadTimeout indicates a read timed out with no data.
	ErrReadTimeout = errors.New("read timeout")
)

// Compile-time interface satisfaction checks.
var (
	_ Endpoint = (*InternalEndpoint)(nil)
	_ Endpoint = (*SerialEndpoint)(nil)
	_ Endpoint = (*SocketEndpoint)(nil)
	_ Conn     = (*internalConn)(nil)
	_ Conn     = (*serialConn)(nil)
	_ Conn     = (*socketConn)(nil)
)
