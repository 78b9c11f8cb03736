package instrument

import (
	"context"
	"fmt"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Power controls the built-in power supply outputs on families that
// carry one.
type Power struct {
	scope *Scope
}

func (p *Power) check(n int) error {
	if !p.scope.prof.HasPower() {
		return fmt.Errorf("family %s has no power supply: %w",
			p.scope.prof.Family, scpi.ErrInvalidParameter)
	}
	if !p.scope.prof.ValidPowerOutput(n) {
		return fmt.Errorf("power output %d outside 1..%d: %w",
			n, p.scope.prof.PowerOutputs, scpi.ErrInvalidParameter)
	}
	return nil
}

// Enable turns output n on.
func (p *Power) Enable(ctx context.Context, n int) error {
	if err := p.check(n); err != nil {
		return err
	}
	_, err := p.scope.sess.Send(ctx, scpi.Set(scpi.ModPower, "output", n, true))
	return err
}

// Disable turns output n off.
func (p *Power) Disable(ctx context.Context, n int) error {
	if err := p.check(n); err != nil {
		return err
	}
	_, err := p.scope.sess.Send(ctx, scpi.Set(scpi.ModPower, "output", n, false))
	return err
}

// IsEnabled reports whether output n is on.
func (p *Power) IsEnabled(ctx context.Context, n int) (bool, error) {
	if err := p.check(n); err != nil {
		return false, err
	}
	resp, err := p.scope.sess.Send(ctx, scpi.Query(scpi.ModPower, "output", n))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetVoltage programs the output voltage.
func (p *Power) SetVoltage(ctx context.Context, n int, volts float64) error {
	if err := p.check(n); err != nil {
		return err
	}
	if volts < 0 {
		return fmt.Errorf("voltage %g: %w", volts, scpi.ErrInvalidParameter)
	}
	_, err := p.scope.sess.Send(ctx, scpi.Set(scpi.ModPower, "voltage", n, volts))
	return err
}

// Voltage returns the programmed output voltage.
func (p *Power) Voltage(ctx context.Context, n int) (float64, error) {
	if err := p.check(n); err != nil {
		return 0, err
	}
	resp, err := p.scope.sess.Send(ctx, scpi.Query(scpi.ModPower, "voltage", n))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// OvercurrentTripped reports whether overcurrent protection fired on
// output n.
func (p *Power) OvercurrentTripped(ctx context.Context, n int) (bool, error) {
	if err := p.check(n); err != nil {
		return false, err
	}
	resp, err := p.scope.sess.Send(ctx, scpi.Query(scpi.ModPower, "ocp", n))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// Reconfigure re-arms output n after a protection trip.
func (p *Power) Reconfigure(ctx context.Context, n int) error {
	if err := p.check(n); err != nil {
		return err
	}
	_, err := p.scope.sess.Send(ctx, scpi.Set(scpi.ModPower, "reconfigure", n))
	return err
}
