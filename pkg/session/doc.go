// Package session implements the command session between the library
// and one instrument endpoint.
//
// A session owns a transport connection and a codec vocabulary and
// exposes one operation: a synchronous Send that encodes a command,
// respects the minimum inter-command gap, writes, and reads the
// response frames within the command timeout.
//
// # Lifecycle
//
//	Disconnected -> Connecting -> Connected -> Closing -> Closed
//
// A command timeout moves a Connected session to Suspect: the
// instrument may still act on the timed-out command later, so the
// session refuses further commands until an explicit Reconnect tears
// the connection down and establishes a fresh one. Malformed response
// frames do not poison the session; the read buffer is dropped and the
// session stays Connected.
//
// Sessions are safe for concurrent use but designed for one caller:
// the orchestrating script issues blocking calls in sequence.
package session
