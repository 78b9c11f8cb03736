package instrument

import (
	"context"
	"fmt"
	"math"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// AWGConfig is one AWG output configuration applied by SetOn.
// Waveform is always applied; numeric fields at zero are skipped,
// leaving the instrument's current setting in place.
type AWGConfig struct {
	Waveform  scpi.Waveform
	Frequency float64
	Amplitude float64
	Offset    float64
}

// AWG controls the arbitrary waveform generator outputs.
type AWG struct {
	scope *Scope
}

func (a *AWG) check(n int) error {
	if !a.scope.prof.ValidAWGChannel(n) {
		return fmt.Errorf("awg channel %d outside 1..%d: %w",
			n, a.scope.prof.AWGChannels, scpi.ErrInvalidParameter)
	}
	return nil
}

// SetWaveform selects the output waveform shape.
func (a *AWG) SetWaveform(ctx context.Context, n int, w scpi.Waveform) error {
	if err := a.check(n); err != nil {
		return err
	}
	if !w.IsValid() {
		return fmt.Errorf("waveform %d: %w", w, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "waveform", n, w))
	return err
}

// Waveform returns the output waveform shape.
func (a *AWG) Waveform(ctx context.Context, n int) (scpi.Waveform, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "waveform", n))
	if err != nil {
		return 0, err
	}
	return scpi.ParseWaveform(resp.Payload)
}

// SetFrequency sets the output frequency in hertz.
func (a *AWG) SetFrequency(ctx context.Context, n int, hz float64) error {
	if err := a.check(n); err != nil {
		return err
	}
	lim := a.scope.prof.Limits
	if hz < lim.AWGFrequencyMin || hz > lim.AWGFrequencyMax {
		return fmt.Errorf("awg frequency %g outside %g..%g: %w",
			hz, lim.AWGFrequencyMin, lim.AWGFrequencyMax, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "frequency", n, hz))
	return err
}

// Frequency returns the output frequency in hertz.
func (a *AWG) Frequency(ctx context.Context, n int) (float64, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "frequency", n))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetAmplitude sets the peak-to-peak amplitude in volts.
func (a *AWG) SetAmplitude(ctx context.Context, n int, vpp float64) error {
	if err := a.check(n); err != nil {
		return err
	}
	lim := a.scope.prof.Limits
	if vpp < lim.AWGAmplitudeMin || vpp > lim.AWGAmplitudeMax {
		return fmt.Errorf("awg amplitude %g outside %g..%g: %w",
			vpp, lim.AWGAmplitudeMin, lim.AWGAmplitudeMax, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "amplitude", n, vpp))
	return err
}

// Amplitude returns the peak-to-peak amplitude in volts.
func (a *AWG) Amplitude(ctx context.Context, n int) (float64, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "amplitude", n))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetOffset sets the DC offset in volts.
func (a *AWG) SetOffset(ctx context.Context, n int, volts float64) error {
	if err := a.check(n); err != nil {
		return err
	}
	if max := a.scope.prof.Limits.AWGOffsetMax; math.Abs(volts) > max {
		return fmt.Errorf("awg offset %g outside +-%g: %w", volts, max, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "offset", n, volts))
	return err
}

// Offset returns the DC offset in volts.
func (a *AWG) Offset(ctx context.Context, n int) (float64, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "offset", n))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetPhase sets the output phase in degrees.
func (a *AWG) SetPhase(ctx context.Context, n int, degrees float64) error {
	if err := a.check(n); err != nil {
		return err
	}
	if degrees < -360 || degrees > 360 {
		return fmt.Errorf("awg phase %g outside +-360: %w", degrees, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "phase", n, degrees))
	return err
}

// Phase returns the output phase in degrees.
func (a *AWG) Phase(ctx context.Context, n int) (float64, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "phase", n))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetLoadImpedance selects the expected output termination.
func (a *AWG) SetLoadImpedance(ctx context.Context, n int, l scpi.LoadImpedance) error {
	if err := a.check(n); err != nil {
		return err
	}
	if !l.IsValid() {
		return fmt.Errorf("load impedance %d: %w", l, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "loadimpedance", n, l))
	return err
}

// LoadImpedance returns the expected output termination.
func (a *AWG) LoadImpedance(ctx context.Context, n int) (scpi.LoadImpedance, error) {
	if err := a.check(n); err != nil {
		return 0, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "loadimpedance", n))
	if err != nil {
		return 0, err
	}
	return scpi.ParseLoadImpedance(resp.Payload)
}

// Enable turns the output on.
func (a *AWG) Enable(ctx context.Context, n int) error {
	if err := a.check(n); err != nil {
		return err
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "output", n, true))
	return err
}

// Disable turns the output off.
func (a *AWG) Disable(ctx context.Context, n int) error {
	if err := a.check(n); err != nil {
		return err
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "output", n, false))
	return err
}

// IsEnabled reports whether the output is on.
func (a *AWG) IsEnabled(ctx context.Context, n int) (bool, error) {
	if err := a.check(n); err != nil {
		return false, err
	}
	resp, err := a.scope.sess.Send(ctx, scpi.Query(scpi.ModAWG, "output", n))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// LoadArbitrary loads a stored arbitrary waveform slot into the
// output.
func (a *AWG) LoadArbitrary(ctx context.Context, n, slot int) error {
	if err := a.check(n); err != nil {
		return err
	}
	if slot < 1 {
		return fmt.Errorf("arbitrary slot %d: %w", slot, scpi.ErrInvalidParameter)
	}
	_, err := a.scope.sess.Send(ctx, scpi.Set(scpi.ModAWG, "arbload", n, slot))
	return err
}

// SetOn applies cfg then enables the output, one command per step,
// stopping at the first failure. The waveform is always selected;
// frequency, amplitude and offset apply only when nonzero.
func (a *AWG) SetOn(ctx context.Context, n int, cfg AWGConfig) error {
	if err := a.SetWaveform(ctx, n, cfg.Waveform); err != nil {
		return err
	}
	if cfg.Frequency != 0 {
		if err := a.SetFrequency(ctx, n, cfg.Frequency); err != nil {
			return err
		}
	}
	if cfg.Amplitude != 0 {
		if err := a.SetAmplitude(ctx, n, cfg.Amplitude); err != nil {
			return err
		}
	}
	if cfg.Offset != 0 {
		if err := a.SetOffset(ctx, n, cfg.Offset); err != nil {
			return err
		}
	}
	return a.Enable(ctx, n)
}

// SetOff disables the output. Equivalent to Disable.
func (a *AWG) SetOff(ctx context.Context, n int) error {
	return a.Disable(ctx, n)
}
