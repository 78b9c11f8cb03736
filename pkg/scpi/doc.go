// Package scpi defines the text command codec for the instrument wire
// protocol.
//
// Commands are SCPI-style text: a colon-separated header, optional
// space-separated arguments, a terminating newline. Queries end their
// header with '?'. Responses are either a newline-terminated text line
// or a definite-length binary block ('#' + digit count + length digits
// + payload + terminator).
//
// # Vocabulary
//
// Encoding goes through a versioned Vocabulary that maps a typed
// Command (module, action, arguments) to its wire template. New
// commands extend the vocabulary without touching the session or
// transport layers.
//
// # Streaming decode
//
// Decode is incremental over a byte buffer: it reports ErrNeedMoreData
// until a complete frame is buffered, then returns the frame and the
// number of bytes it consumed, so pipelined tails survive.
package scpi
