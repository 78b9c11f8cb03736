package instrument

import (
	"context"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

// Scope is one oscilloscope: a command session, the profile of the
// instrument family on the other end, and the subsystem modules.
type Scope struct {
	sess *session.Session
	prof *profile.Profile

	Channel  *Channel
	Timebase *Timebase
	Trigger  *Trigger
	Acquire  *Acquire
	AWG      *AWG
	DMM      *DMM
	Power    *Power
	Bus      *Bus
	Spectrum *Spectrum
	Measure  *Measure
	Waveform *Waveform
	Sync     *Synchronizer

	mu    sync.Mutex
	ident *scpi.Identity
}

// NewScope wires the subsystem modules over sess. The profile decides
// which indexes and features each module accepts; it is not consulted
// again after construction, so the caller picks it per instrument
// family (profile.ForModel after an initial Identify, or a fixed
// family when the model is known up front).
func NewScope(sess *session.Session, prof *profile.Profile) *Scope {
	s := &Scope{sess: sess, prof: prof}
	s.Channel = &Channel{scope: s, state: make(map[int]*ChannelState)}
	s.Timebase = &Timebase{scope: s}
	s.Trigger = &Trigger{scope: s}
	s.Acquire = &Acquire{scope: s}
	s.AWG = &AWG{scope: s}
	s.DMM = &DMM{scope: s}
	s.Power = &Power{scope: s}
	s.Bus = &Bus{scope: s}
	s.Spectrum = &Spectrum{scope: s}
	s.Measure = &Measure{scope: s}
	s.Waveform = &Waveform{scope: s}
	s.Sync = &Synchronizer{scope: s}
	return s
}

// Session returns the underlying command session.
func (s *Scope) Session() *session.Session {
	return s.sess
}

// Profile returns the instrument family profile.
func (s *Scope) Profile() *profile.Profile {
	return s.prof
}

// Identify queries *IDN? and caches the parsed identity.
func (s *Scope) Identify(ctx context.Context) (scpi.Identity, error) {
	resp, err := s.sess.Send(ctx, scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	id, err := scpi.ParseIdentity(resp.Payload)
	if err != nil {
		return scpi.Identity{}, err
	}
	s.mu.Lock()
	s.ident = &id
	s.mu.Unlock()
	return id, nil
}

// Identity returns the identity cached by the last Identify.
func (s *Scope) Identity() (scpi.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ident == nil {
		return scpi.Identity{}, false
	}
	return *s.ident, true
}

// Run starts continuous acquisition and returns the synchronizer to
// idle: a running sweep has no single-shot completion to wait for.
func (s *Scope) Run(ctx context.Context) error {
	if _, err := s.sess.Send(ctx, scpi.Set(scpi.ModSystem, "run")); err != nil {
		return err
	}
	s.Sync.Reset()
	return nil
}

// Stop halts acquisition and returns the synchronizer to idle.
func (s *Scope) Stop(ctx context.Context) error {
	if _, err := s.sess.Send(ctx, scpi.Set(scpi.ModSystem, "stop")); err != nil {
		return err
	}
	s.Sync.Reset()
	return nil
}

// Single arms one single-shot acquisition. Equivalent to Sync.Start.
func (s *Scope) Single(ctx context.Context) error {
	return s.Sync.Start(ctx)
}

// Force issues a manual trigger.
func (s *Scope) Force(ctx context.Context) error {
	_, err := s.sess.Send(ctx, scpi.Set(scpi.ModSystem, "force"))
	return err
}

// Autoset asks the instrument to configure itself for the applied
// signal. Cached channel state is dropped since the instrument
// rewrites scales and positions behind our back.
func (s *Scope) Autoset(ctx context.Context) error {
	if _, err := s.sess.Send(ctx, scpi.Set(scpi.ModSystem, "autoset")); err != nil {
		return err
	}
	s.Channel.invalidate()
	return nil
}

// Reset issues *RST, drops cached channel state and returns the
// synchronizer to idle.
func (s *Scope) Reset(ctx context.Context) error {
	if _, err := s.sess.Send(ctx, scpi.Set(scpi.ModSystem, "reset")); err != nil {
		return err
	}
	s.Channel.invalidate()
	s.Sync.Reset()
	return nil
}

// OperationComplete queries *OPC?, which blocks on the instrument
// until pending overlapped operations finish.
func (s *Scope) OperationComplete(ctx context.Context) (bool, error) {
	resp, err := s.sess.Send(ctx, scpi.Query(scpi.ModSystem, "opc"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SystemError pops one entry from the instrument's error queue.
func (s *Scope) SystemError(ctx context.Context) (scpi.SystemError, error) {
	resp, err := s.sess.Send(ctx, scpi.Query(scpi.ModSystem, "error"))
	if err != nil {
		return scpi.SystemError{}, err
	}
	return scpi.ParseSystemError(resp.Payload)
}
