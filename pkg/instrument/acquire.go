package instrument

import (
	"context"
	"fmt"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Acquire controls the sampling engine.
type Acquire struct {
	scope *Scope
}

// SetMode selects sample, peak detect or average acquisition.
func (a *Acquire) SetMode(ctx context.Context, m scpi.AcquisitionMode) error {
	if !m.IsValid() {
		return fmt.Errorf("acquisition mode %d: %w", m, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAcquire, "mode", m))
	return err
}

// Mode returns the acquisition mode.
func (a *Acquire) Mode(ctx context.Context) (scpi.AcquisitionMode, error) {
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "mode"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseAcquisitionMode(resp.Payload)
}

// SetAverageCount sets the number of averaged sweeps, a power of two
// between 2 and 256.
func (a *Acquire) SetAverageCount(ctx context.Context, n int) error {
	if n < 2 || n > 256 || n&(n-1) != 0 {
		return fmt.Errorf("average count %d not a power of two in 2..256: %w",
			n, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAcquire, "average", n))
	return err
}

// AverageCount returns the number of averaged sweeps.
func (a *Acquire) AverageCount(ctx context.Context) (int, error) {
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "average"))
	if err != nil {
		return 0, err
	}
	return resp.Int()
}

// SetRecordLength sets the record length in points, one of the
// family's supported depths.
func (a *Acquire) SetRecordLength(ctx context.Context, points int) error {
	if !a.scope.prof.Limits.RecordLengthOK(points) {
		return fmt.Errorf("record length %d unsupported: %w", points, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAcquire, "recordlength", points))
	return err
}

// RecordLength returns the record length in points.
func (a *Acquire) RecordLength(ctx context.Context) (int, error) {
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "recordlength"))
	if err != nil {
		return 0, err
	}
	return resp.Int()
}

// SampleRate returns the current sample rate in samples per second.
func (a *Acquire) SampleRate(ctx context.Context) (float64, error) {
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "samplerate"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// State reports whether a channel has a complete record ready.
func (a *Acquire) State(ctx context.Context, ch int) (bool, error) {
	if !a.scope.prof.ValidChannel(ch) {
		return false, fmt.Errorf("channel %d outside 1..%d: %w",
			ch, a.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAcquire, "state", ch))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}
