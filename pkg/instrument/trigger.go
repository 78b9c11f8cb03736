package instrument

import (
	"context"
	"fmt"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Trigger controls the trigger engine.
type Trigger struct {
	scope *Scope
}

// checkSource rejects analog sources beyond the family's channel
// count; external, line and digital sources are always legal.
func (t *Trigger) checkSource(src scpi.TriggerSource) error {
	if !src.IsValid() {
		return fmt.Errorf("trigger source %d: %w", src, scpi.ErrInvalidParameter)
	}
	if src >= scpi.TriggerSourceCH1 && src <= scpi.TriggerSourceCH4 {
		if !t.scope.prof.ValidChannel(int(src)) {
			return fmt.Errorf("trigger source %s outside %d channels: %w",
				src, t.scope.prof.Channels, scpi.ErrInvalidParameter)
		}
	}
	return nil
}

// SetType selects the trigger type.
func (t *Trigger) SetType(ctx context.Context, tt scpi.TriggerType) error {
	if !tt.IsValid() {
		return fmt.Errorf("trigger type %d: %w", tt, scpi.ErrInvalidParameter)
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "type", tt))
	return err
}

// Type returns the trigger type.
func (t *Trigger) Type(ctx context.Context) (scpi.TriggerType, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "type"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseTriggerType(resp.Payload)
}

// SetSource selects the trigger source.
func (t *Trigger) SetSource(ctx context.Context, src scpi.TriggerSource) error {
	if err := t.checkSource(src); err != nil {
		return err
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "source", src))
	return err
}

// Source returns the trigger source.
func (t *Trigger) Source(ctx context.Context) (scpi.TriggerSource, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "source"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseTriggerSource(resp.Payload)
}

// SetMode selects auto or normal sweep.
func (t *Trigger) SetMode(ctx context.Context, m scpi.TriggerMode) error {
	if !m.IsValid() {
		return fmt.Errorf("trigger mode %d: %w", m, scpi.ErrInvalidParameter)
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "mode", m))
	return err
}

// Mode returns the sweep mode.
func (t *Trigger) Mode(ctx context.Context) (scpi.TriggerMode, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "mode"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseTriggerMode(resp.Payload)
}

// SetCoupling sets the trigger signal coupling.
func (t *Trigger) SetCoupling(ctx context.Context, c scpi.TriggerCoupling) error {
	if !c.IsValid() {
		return fmt.Errorf("trigger coupling %d: %w", c, scpi.ErrInvalidParameter)
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "coupling", c))
	return err
}

// Coupling returns the trigger signal coupling.
func (t *Trigger) Coupling(ctx context.Context) (scpi.TriggerCoupling, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "coupling"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseTriggerCoupling(resp.Payload)
}

// SetLevel sets the trigger level in volts. The legal window depends
// on the active vertical scale, so the instrument is the authority;
// no range check happens here.
func (t *Trigger) SetLevel(ctx context.Context, volts float64) error {
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "level", volts))
	return err
}

// Level returns the trigger level in volts.
func (t *Trigger) Level(ctx context.Context) (float64, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "level"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetHoldoff sets the trigger holdoff in seconds.
func (t *Trigger) SetHoldoff(ctx context.Context, secs float64) error {
	lim := t.scope.prof.Limits
	if secs < lim.HoldoffMin || secs > lim.HoldoffMax {
		return fmt.Errorf("holdoff %g outside %g..%g: %w",
			secs, lim.HoldoffMin, lim.HoldoffMax, scpi.ErrInvalidParameter)
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "holdoff", secs))
	return err
}

// Holdoff returns the trigger holdoff in seconds.
func (t *Trigger) Holdoff(ctx context.Context) (float64, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "holdoff"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetNoiseRejection toggles trigger noise rejection.
func (t *Trigger) SetNoiseRejection(ctx context.Context, on bool) error {
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "noisereject", on))
	return err
}

// SetExternalProbeRatio sets the attenuation of a probe on the
// external trigger input.
func (t *Trigger) SetExternalProbeRatio(ctx context.Context, ratio float64) error {
	if ratio <= 0 {
		return fmt.Errorf("external probe ratio %g: %w", ratio, scpi.ErrInvalidParameter)
	}
	_, err := t.scope.sess.Send(ctx, scpi.Set(scpi.ModTrigger, "extratio", ratio))
	return err
}

// Frequency returns the trigger frequency counter reading in hertz.
func (t *Trigger) Frequency(ctx context.Context) (float64, error) {
	resp, err := t.scope.sess.Send(ctx, scpi.Query(scpi.ModTrigger, "frequency"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// Setup applies mode, source and level as three single commands in
// that order, stopping at the first failure.
func (t *Trigger) Setup(ctx context.Context, m scpi.TriggerMode, src scpi.TriggerSource, level float64) error {
	if err := t.SetMode(ctx, m); err != nil {
		return err
	}
	if err := t.SetSource(ctx, src); err != nil {
		return err
	}
	return t.SetLevel(ctx, level)
}
