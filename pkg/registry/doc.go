// Package registry enumerates bench devices and owns their sessions.
//
// Discover runs one synchronous enumeration pass: the in-process scope
// endpoint first, then USB serial ports identified with *IDN?, then
// SCPI services advertised on the LAN. Each pass re-enumerates from
// scratch and returns a slice of descriptors; a pass is not restartable
// midway.
//
// Open turns a descriptor into a connected session.Session with the
// vocabulary and pacing its device class calls for. The registry is the
// sole owner of session lifetime: at most one live session exists per
// physical endpoint, a second Open fails with ErrAlreadyOpen, and Close
// releases the endpoint for reopening.
//
//	reg := registry.New(registry.Options{Internal: firmware})
//	found, err := reg.Discover(ctx)
//	if err != nil { ... }
//	sess, err := reg.Open(ctx, found[0])
//	if err != nil { ... }
//	defer reg.CloseAll()
package registry
