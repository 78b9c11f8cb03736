package session

import "errors"

// Session errors.
var (
	// ErrNotConnected indicates the session has no live connection.
	ErrNotConnected = errors.New("session not connected")

	// ErrSuspect indicates a previous command timed out and the
	// instrument's state is unknown until Reconnect.
	ErrSuspect = errors.New("session suspect, reconnect required")

	// ErrClosed indicates the session has been closed.
	ErrClosed = errors.New("session closed")

	// ErrTimeout indicates the command window elapsed without a
	// complete response.
	ErrTimeout = errors.New("command timeout")

	// ErrAlreadyConnected indicates Connect on a live session.
	ErrAlreadyConnected = errors.New("session already connected")
)

// State represents the session lifecycle state.
type State uint8

const (
	// StateDisconnected indicates no connection has been made.
	StateDisconnected State = iota

	// StateConnecting indicates connection establishment is in progress.
	StateConnecting

	// StateConnected indicates the session is ready for commands.
	StateConnected

	// StateSuspect indicates a command timed out; the instrument may
	// still be processing it, so command state is unknown until an
	// explicit Reconnect.
	StateSuspect

	// StateClosing indicates teardown is in progress.
	StateClosing

	// StateClosed indicates the session has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateSuspect:
		return "SUSPECT"
	case StateClosing:
		return "CLOSING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
