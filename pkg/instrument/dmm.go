package instrument

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// dmmRanges lists the manual measurement ranges each meter function
// accepts. Functions not listed (amps, diode, continuity,
// temperature) auto-range only.
var dmmRanges = map[scpi.DMMFunction][]float64{
	scpi.DMMACVolts:      {5, 50, 750},
	scpi.DMMDCVolts:      {5, 50, 500, 1000},
	scpi.DMMACMillivolts: {0.05, 0.5},
	scpi.DMMDCMillivolts: {0.05, 0.5},
	scpi.DMMACMilliamps:  {0.05, 0.5},
	scpi.DMMDCMilliamps:  {0.05, 0.5},
	scpi.DMMResistance:   {50, 500, 5000, 50000, 500000, 5000000, 50000000},
}

// DMM controls the built-in digital multimeter. The profile gates the
// whole module: families without a meter fail every operation.
type DMM struct {
	scope *Scope

	mu       sync.Mutex
	function scpi.DMMFunction
	hasFunc  bool
}

func (d *DMM) check() error {
	if !d.scope.prof.HasDMM {
		return fmt.Errorf("family %s has no multimeter: %w",
			d.scope.prof.Family, scpi.ErrInvalidParameter)
	}
	return nil
}

// Enable turns the meter on.
func (d *DMM) Enable(ctx context.Context) error {
	if err := d.check(); err != nil {
		return err
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "state", true))
	return err
}

// Disable turns the meter off.
func (d *DMM) Disable(ctx context.Context) error {
	if err := d.check(); err != nil {
		return err
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "state", false))
	return err
}

// IsEnabled reports whether the meter is on.
func (d *DMM) IsEnabled(ctx context.Context) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	resp, err := d.scope.sess.Send(ctx, scpi.Query(scpi.ModDMM, "state"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetFunction selects the meter function and records it so later
// range checks know which table applies.
func (d *DMM) SetFunction(ctx context.Context, f scpi.DMMFunction) error {
	if err := d.check(); err != nil {
		return err
	}
	if !f.IsValid() {
		return fmt.Errorf("meter function %d: %w", f, scpi.ErrInvalidParameter)
	}
	if _, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "mode", f)); err != nil {
		return err
	}
	d.mu.Lock()
	d.function = f
	d.hasFunc = true
	d.mu.Unlock()
	return nil
}

// CachedFunction returns the last function selected through
// SetFunction or Measure.
func (d *DMM) CachedFunction() (scpi.DMMFunction, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.function, d.hasFunc
}

// SetRange selects a manual measurement range for function f. The
// value must be one of f's legal ranges; functions without a manual
// range table reject everything here and auto-range instead.
func (d *DMM) SetRange(ctx context.Context, f scpi.DMMFunction, v float64) error {
	if err := d.check(); err != nil {
		return err
	}
	legal, ok := dmmRanges[f]
	if !ok {
		return fmt.Errorf("function %s auto-ranges only: %w", f, scpi.ErrInvalidParameter)
	}
	found := false
	for _, r := range legal {
		if v == r {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("range %g not legal for %s: %w", v, f, scpi.ErrInvalidParameter)
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "range", v))
	return err
}

// SetRangeAuto returns the meter to auto-ranging.
func (d *DMM) SetRangeAuto(ctx context.Context) error {
	if err := d.check(); err != nil {
		return err
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "range", "AUTO"))
	return err
}

// Value reads the current measurement. Overloads report as +Inf or
// -Inf. A measurement read: refused while an acquisition is sampling.
func (d *DMM) Value(ctx context.Context) (float64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	if err := d.scope.Sync.Guard(); err != nil {
		return 0, err
	}
	resp, err := d.scope.sess.Send(ctx, scpi.Query(scpi.ModDMM, "value"))
	if err != nil {
		return 0, err
	}
	return meterValue(resp.Payload)
}

// Measure reads one measurement in function f. When the cached
// function differs (or nothing was ever selected) it first issues the
// function switch, then the value query; with the function already
// known it is the single value query.
func (d *DMM) Measure(ctx context.Context, f scpi.DMMFunction) (float64, error) {
	if err := d.check(); err != nil {
		return 0, err
	}
	if err := d.scope.Sync.Guard(); err != nil {
		return 0, err
	}
	d.mu.Lock()
	current := d.hasFunc && d.function == f
	d.mu.Unlock()
	if !current {
		if err := d.SetFunction(ctx, f); err != nil {
			return 0, err
		}
	}
	return d.Value(ctx)
}

// SetTemperatureType selects the thermocouple type for temperature
// measurements.
func (d *DMM) SetTemperatureType(ctx context.Context, t scpi.ThermocoupleType) error {
	if err := d.check(); err != nil {
		return err
	}
	if !t.IsValid() {
		return fmt.Errorf("thermocouple type %d: %w", t, scpi.ErrInvalidParameter)
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "temptype", t))
	return err
}

// SetTemperatureUnits selects Celsius or Fahrenheit display.
func (d *DMM) SetTemperatureUnits(ctx context.Context, u scpi.TemperatureUnit) error {
	if err := d.check(); err != nil {
		return err
	}
	if !u.IsValid() {
		return fmt.Errorf("temperature unit %d: %w", u, scpi.ErrInvalidParameter)
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "tempunits", u))
	return err
}

// SetMinMax toggles min/max tracking.
func (d *DMM) SetMinMax(ctx context.Context, on bool) error {
	if err := d.check(); err != nil {
		return err
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "minmax", on))
	return err
}

// SetHold freezes or releases the displayed reading.
func (d *DMM) SetHold(ctx context.Context, on bool) error {
	if err := d.check(); err != nil {
		return err
	}
	_, err := d.scope.sess.Send(ctx, scpi.Set(scpi.ModDMM, "hold", on))
	return err
}

// IsHold reports whether the reading is held.
func (d *DMM) IsHold(ctx context.Context) (bool, error) {
	if err := d.check(); err != nil {
		return false, err
	}
	resp, err := d.scope.sess.Send(ctx, scpi.Query(scpi.ModDMM, "hold"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// meterValue parses a meter payload; the overload markers OL and -OL
// map to the infinities.
func meterValue(payload string) (float64, error) {
	s := strings.TrimSpace(payload)
	switch strings.ToUpper(s) {
	case "OL", "+OL":
		return math.Inf(1), nil
	case "-OL":
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("meter value %q: %w", payload, scpi.ErrMalformedResponse)
	}
	return v, nil
}
