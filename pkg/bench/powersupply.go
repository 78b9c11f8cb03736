package bench

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

// Limits is the programmable range a supply or load reported at open.
type Limits struct {
	MinVoltage float64
	MaxVoltage float64
	MinCurrent float64
	MaxCurrent float64
}

func (l Limits) voltageOK(v float64) bool {
	return v >= l.MinVoltage && v <= l.MaxVoltage
}

func (l Limits) currentOK(a float64) bool {
	return a >= l.MinCurrent && a <= l.MaxCurrent
}

// SupplyMode selects the regulation and response priority of a supply
// output.
type SupplyMode int

const (
	SupplyCVHighSpeed SupplyMode = iota + 1
	SupplyCCHighSpeed
	SupplyCVSlewRate
	SupplyCCSlewRate
)

var supplyModeNames = map[SupplyMode]string{
	SupplyCVHighSpeed: "CVHS",
	SupplyCCHighSpeed: "CCHS",
	SupplyCVSlewRate:  "CVLS",
	SupplyCCSlewRate:  "CCLS",
}

func (m SupplyMode) String() string {
	if s, ok := supplyModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SupplyMode(%d)", int(m))
}

// IsValid reports whether m names a known supply mode.
func (m SupplyMode) IsValid() bool {
	_, ok := supplyModeNames[m]
	return ok
}

func parseSupplyMode(s string) (SupplyMode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for m, name := range supplyModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("supply mode %q: %w", s, scpi.ErrMalformedResponse)
}

// PowerSupply drives one programmable supply of the PSW, PFR or PPX
// family. These are single-output units; operations that take an
// output index accept only output 1.
type PowerSupply struct {
	sess *session.Session

	mu     sync.Mutex
	ident  *scpi.Identity
	limits Limits
}

// NewPowerSupply reads the supply's identity and its programmable
// voltage and current range over sess. The session stays owned by the
// caller; the driver never closes it.
func NewPowerSupply(ctx context.Context, sess *session.Session) (*PowerSupply, error) {
	p := &PowerSupply{sess: sess}
	if _, err := p.Identify(ctx); err != nil {
		return nil, err
	}
	limits, err := readLimits(ctx, sess, modSupply)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	p.limits = limits
	p.mu.Unlock()
	return p, nil
}

// readLimits queries the four setpoint bounds a supply or load
// reports. The order matches the instrument documentation: current
// first, then voltage.
func readLimits(ctx context.Context, sess *session.Session, module string) (Limits, error) {
	var l Limits
	for _, q := range []struct {
		action string
		dst    *float64
	}{
		{"currentmax", &l.MaxCurrent},
		{"currentmin", &l.MinCurrent},
		{"voltagemax", &l.MaxVoltage},
		{"voltagemin", &l.MinVoltage},
	} {
		resp, err := sess.Send(ctx, scpi.Query(module, q.action))
		if err != nil {
			return Limits{}, fmt.Errorf("%s limit: %w", q.action, err)
		}
		v, err := resp.Float()
		if err != nil {
			return Limits{}, fmt.Errorf("%s limit: %w", q.action, err)
		}
		*q.dst = v
	}
	return l, nil
}

// Identify queries *IDN? and caches the parsed identity.
func (p *PowerSupply) Identify(ctx context.Context) (scpi.Identity, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	id, err := scpi.ParseIdentity(resp.Payload)
	if err != nil {
		return scpi.Identity{}, err
	}
	p.mu.Lock()
	p.ident = &id
	p.mu.Unlock()
	return id, nil
}

// Identity returns the identity cached by the last Identify.
func (p *PowerSupply) Identity() (scpi.Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ident == nil {
		return scpi.Identity{}, false
	}
	return *p.ident, true
}

// Limits returns the setpoint bounds read at open.
func (p *PowerSupply) Limits() Limits {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.limits
}

func (p *PowerSupply) checkOutput(n int) error {
	if n != 1 {
		return fmt.Errorf("supply output %d outside 1..1: %w", n, scpi.ErrInvalidParameter)
	}
	return nil
}

// SetVoltage programs the output voltage in volts.
func (p *PowerSupply) SetVoltage(ctx context.Context, n int, volts float64) error {
	if err := p.checkOutput(n); err != nil {
		return err
	}
	if l := p.Limits(); !l.voltageOK(volts) {
		return fmt.Errorf("voltage %g outside %g..%g: %w",
			volts, l.MinVoltage, l.MaxVoltage, scpi.ErrInvalidParameter)
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "voltage", volts))
	return err
}

// Voltage returns the programmed output voltage.
func (p *PowerSupply) Voltage(ctx context.Context, n int) (float64, error) {
	if err := p.checkOutput(n); err != nil {
		return 0, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "voltage"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetCurrent programs the output current limit in amps.
func (p *PowerSupply) SetCurrent(ctx context.Context, n int, amps float64) error {
	if err := p.checkOutput(n); err != nil {
		return err
	}
	if l := p.Limits(); !l.currentOK(amps) {
		return fmt.Errorf("current %g outside %g..%g: %w",
			amps, l.MinCurrent, l.MaxCurrent, scpi.ErrInvalidParameter)
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "current", amps))
	return err
}

// Current returns the programmed output current limit.
func (p *PowerSupply) Current(ctx context.Context, n int) (float64, error) {
	if err := p.checkOutput(n); err != nil {
		return 0, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "current"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetOutput programs voltage and current limit together: the voltage
// setpoint first, then the current limit, two commands. A validation
// failure on either value writes nothing.
func (p *PowerSupply) SetOutput(ctx context.Context, n int, volts, amps float64) error {
	if err := p.checkOutput(n); err != nil {
		return err
	}
	l := p.Limits()
	if !l.voltageOK(volts) {
		return fmt.Errorf("voltage %g outside %g..%g: %w",
			volts, l.MinVoltage, l.MaxVoltage, scpi.ErrInvalidParameter)
	}
	if !l.currentOK(amps) {
		return fmt.Errorf("current %g outside %g..%g: %w",
			amps, l.MinCurrent, l.MaxCurrent, scpi.ErrInvalidParameter)
	}
	if _, err := p.sess.Send(ctx, scpi.Set(modSupply, "voltage", volts)); err != nil {
		return err
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "current", amps))
	return err
}

// Enable turns output n on.
func (p *PowerSupply) Enable(ctx context.Context, n int) error {
	if err := p.checkOutput(n); err != nil {
		return err
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "output", true))
	return err
}

// Disable turns output n off.
func (p *PowerSupply) Disable(ctx context.Context, n int) error {
	if err := p.checkOutput(n); err != nil {
		return err
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "output", false))
	return err
}

// IsEnabled reports whether output n is on.
func (p *PowerSupply) IsEnabled(ctx context.Context, n int) (bool, error) {
	if err := p.checkOutput(n); err != nil {
		return false, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "output"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetMode selects the regulation priority of the output.
func (p *PowerSupply) SetMode(ctx context.Context, m SupplyMode) error {
	if !m.IsValid() {
		return fmt.Errorf("supply mode %d: %w", int(m), scpi.ErrInvalidParameter)
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "mode", m))
	return err
}

// Mode returns the regulation priority of the output.
func (p *PowerSupply) Mode(ctx context.Context) (SupplyMode, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "mode"))
	if err != nil {
		return 0, err
	}
	return parseSupplyMode(resp.Payload)
}

// MeasureVoltage takes a measurement and returns the average output
// voltage.
func (p *PowerSupply) MeasureVoltage(ctx context.Context, n int) (float64, error) {
	if err := p.checkOutput(n); err != nil {
		return 0, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "measurevoltage"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// MeasureCurrent takes a measurement and returns the average output
// current.
func (p *PowerSupply) MeasureCurrent(ctx context.Context, n int) (float64, error) {
	if err := p.checkOutput(n); err != nil {
		return 0, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "measurecurrent"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// MeasurePower takes a measurement and returns the average output
// power in watts.
func (p *PowerSupply) MeasurePower(ctx context.Context, n int) (float64, error) {
	if err := p.checkOutput(n); err != nil {
		return 0, err
	}
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "measurepower"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetOVP sets the overvoltage protection level in volts.
func (p *PowerSupply) SetOVP(ctx context.Context, volts float64) error {
	if volts <= 0 {
		return fmt.Errorf("OVP level %g: %w", volts, scpi.ErrInvalidParameter)
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "ovp", volts))
	return err
}

// OVP returns the overvoltage protection level.
func (p *PowerSupply) OVP(ctx context.Context) (float64, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "ovp"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetOCP sets the overcurrent protection level in amps.
func (p *PowerSupply) SetOCP(ctx context.Context, amps float64) error {
	if amps <= 0 {
		return fmt.Errorf("OCP level %g: %w", amps, scpi.ErrInvalidParameter)
	}
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "ocp", amps))
	return err
}

// OCP returns the overcurrent protection level.
func (p *PowerSupply) OCP(ctx context.Context) (float64, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "ocp"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetOCPEnabled arms or disarms overcurrent protection.
func (p *PowerSupply) SetOCPEnabled(ctx context.Context, on bool) error {
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "ocpstate", on))
	return err
}

// OCPEnabled reports whether overcurrent protection is armed.
func (p *PowerSupply) OCPEnabled(ctx context.Context) (bool, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "ocpstate"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// ProtectionTripped reports whether any protection circuit (OVP, OCP
// or overtemperature) has fired.
func (p *PowerSupply) ProtectionTripped(ctx context.Context) (bool, error) {
	resp, err := p.sess.Send(ctx, scpi.Query(modSupply, "tripped"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// ClearProtection resets the protection circuits after a trip. The
// output stays off until re-enabled.
func (p *PowerSupply) ClearProtection(ctx context.Context) error {
	_, err := p.sess.Send(ctx, scpi.Set(modSupply, "clearprotection"))
	return err
}
