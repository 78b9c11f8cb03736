// Package transport provides the BenchWire byte transport layer.
//
// The transport layer hands the session an undifferentiated byte stream;
// command framing and parsing live one layer up, so the wire text is
// identical no matter which transport carries it.
//
// # Protocol Stack
//
//	┌───────────────────────────────────────┐
//	│          SCPI Command Text            │
//	├───────────────────────────────────────┤
//	│   Newline / Definite-Length Framing   │
//	├─────────────┬────────────┬────────────┤
//	│  Internal   │  USB-CDC   │ TCP Socket │
//	│  dispatch   │  serial    │            │
//	└─────────────┴────────────┴────────────┘
//
// # Endpoint Kinds
//
// Three endpoint kinds exist:
//   - Internal: in-process dispatch to a Responder, used by scripts
//     running on the instrument itself and by the test harness
//   - Serial: USB-CDC serial lines (8 data bits, no parity, one stop
//     bit), used for bench instruments
//   - Socket: TCP, used for LAN-attached instruments
//
// # Read Timeouts
//
// Conn reads never block forever. SetReadTimeout bounds the next reads;
// an expired read returns ErrReadTimeout with no data, and the caller
// decides whether the silence is fatal.
package transport
