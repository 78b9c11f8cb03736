package instrument

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

var (
	// ErrNotReady is returned by measurement reads while a
	// single-shot acquisition is still sampling.
	ErrNotReady = errors.New("acquisition in progress")

	// ErrNotStarted is returned by WaitForCompletion when no
	// single-shot acquisition has been armed.
	ErrNotStarted = errors.New("no acquisition armed")
)

// AcqState tracks a single-shot acquisition.
type AcqState uint8

const (
	// AcqIdle means no single-shot acquisition is armed.
	AcqIdle AcqState = iota

	// AcqSampling means the instrument is armed and filling memory.
	AcqSampling

	// AcqComplete means the last armed acquisition finished.
	AcqComplete
)

// String returns the state name.
func (s AcqState) String() string {
	switch s {
	case AcqIdle:
		return "IDLE"
	case AcqSampling:
		return "SAMPLING"
	case AcqComplete:
		return "COMPLETE"
	default:
		return "UNKNOWN"
	}
}

// Synchronizer tracks single-shot acquisitions so measurement reads
// never consume a half-filled record. The ready flag works one way:
// reads are refused while Sampling and allowed again only after the
// instrument itself reports completion.
//
// States move Idle -> Sampling (Start) -> Complete (WaitForCompletion
// observing the instrument) -> Idle (Reset, or Run/Stop on the scope).
type Synchronizer struct {
	scope *Scope

	mu    sync.Mutex
	state AcqState
}

// State returns the current acquisition state.
func (y *Synchronizer) State() AcqState {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.state
}

// Start arms one single-shot acquisition with :SINGle and moves the
// synchronizer to Sampling.
func (y *Synchronizer) Start(ctx context.Context) error {
	if _, err := y.scope.sess.Send(ctx, scpi.Set(scpi.ModSystem, "single")); err != nil {
		return err
	}
	y.transition(AcqSampling, "single armed")
	return nil
}

// WaitForCompletion polls the acquisition state at the profile's poll
// interval until the instrument reports the record complete or the
// timeout elapses. A timeout leaves the state at Sampling and returns
// an error wrapping session.ErrTimeout; the session itself stays
// healthy since every poll got an answer. Calling this without an
// armed acquisition fails fast with ErrNotStarted.
func (y *Synchronizer) WaitForCompletion(ctx context.Context, timeout time.Duration) error {
	y.mu.Lock()
	switch y.state {
	case AcqIdle:
		y.mu.Unlock()
		return ErrNotStarted
	case AcqComplete:
		y.mu.Unlock()
		return nil
	}
	y.mu.Unlock()

	interval := y.scope.prof.Timing.AcquirePoll()
	deadline := time.Now().Add(timeout)
	for {
		resp, err := y.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "state", 1))
		if err != nil {
			return err
		}
		done, err := resp.Bool()
		if err != nil {
			return fmt.Errorf("acquisition state: %w", err)
		}
		if done {
			y.transition(AcqComplete, "record complete")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("acquisition incomplete after %v: %w", timeout, session.ErrTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Guard refuses measurement reads while an acquisition is sampling.
func (y *Synchronizer) Guard() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.state == AcqSampling {
		return ErrNotReady
	}
	return nil
}

// Reset returns the synchronizer to Idle.
func (y *Synchronizer) Reset() {
	y.transition(AcqIdle, "reset")
}

func (y *Synchronizer) transition(next AcqState, reason string) {
	y.mu.Lock()
	old := y.state
	y.state = next
	y.mu.Unlock()
	if old == next {
		return
	}
	sess := y.scope.sess
	sess.Logger().Log(log.Event{
		Timestamp: time.Now(),
		SessionID: sess.ID(),
		Direction: log.DirectionOut,
		Layer:     log.LayerInstrument,
		Category:  log.CategoryState,
		Transport: sess.Endpoint().Kind().String(),
		Endpoint:  sess.Endpoint().ID(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityAcquisition,
			OldState: old.String(),
			NewState: next.String(),
			Reason:   reason,
		},
	})
}
