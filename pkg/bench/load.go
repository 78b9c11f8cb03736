package bench

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

// LoadMode is the operating mode of an electronic load.
type LoadMode int

const (
	LoadCC LoadMode = iota + 1 // constant current
	LoadCV                     // constant voltage
	LoadCR                     // constant resistance
	LoadCP                     // constant power
)

var loadModeNames = map[LoadMode]string{
	LoadCC: "CC",
	LoadCV: "CV",
	LoadCR: "CR",
	LoadCP: "CP",
}

// levelActions maps each mode to the vocabulary action programming its
// static A value.
var levelActions = map[LoadMode]string{
	LoadCC: "levelcc",
	LoadCV: "levelcv",
	LoadCR: "levelcr",
	LoadCP: "levelcp",
}

func (m LoadMode) String() string {
	if s, ok := loadModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("LoadMode(%d)", int(m))
}

// IsValid reports whether m names a known load mode.
func (m LoadMode) IsValid() bool {
	_, ok := loadModeNames[m]
	return ok
}

func parseLoadMode(s string) (LoadMode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for m, name := range loadModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("load mode %q: %w", s, scpi.ErrMalformedResponse)
}

// ElectronicLoad drives one DC electronic load of the PEL family.
type ElectronicLoad struct {
	sess *session.Session

	mu     sync.Mutex
	ident  *scpi.Identity
	limits Limits
	mode   LoadMode
}

// NewElectronicLoad reads the load's identity and its sink voltage and
// current range over sess. The session stays owned by the caller.
func NewElectronicLoad(ctx context.Context, sess *session.Session) (*ElectronicLoad, error) {
	l := &ElectronicLoad{sess: sess}
	if _, err := l.Identify(ctx); err != nil {
		return nil, err
	}
	limits, err := readLimits(ctx, sess, modLoad)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.limits = limits
	l.mu.Unlock()
	return l, nil
}

// Identify queries *IDN? and caches the parsed identity.
func (l *ElectronicLoad) Identify(ctx context.Context) (scpi.Identity, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	id, err := scpi.ParseIdentity(resp.Payload)
	if err != nil {
		return scpi.Identity{}, err
	}
	l.mu.Lock()
	l.ident = &id
	l.mu.Unlock()
	return id, nil
}

// Identity returns the identity cached by the last Identify.
func (l *ElectronicLoad) Identity() (scpi.Identity, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ident == nil {
		return scpi.Identity{}, false
	}
	return *l.ident, true
}

// Limits returns the sink bounds read at open.
func (l *ElectronicLoad) Limits() Limits {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limits
}

// SetMode selects the operating mode. The mode decides which quantity
// SetLevel programs.
func (l *ElectronicLoad) SetMode(ctx context.Context, m LoadMode) error {
	if !m.IsValid() {
		return fmt.Errorf("load mode %d: %w", int(m), scpi.ErrInvalidParameter)
	}
	if _, err := l.sess.Send(ctx, scpi.Set(modLoad, "mode", m)); err != nil {
		return err
	}
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
	return nil
}

// Mode queries the operating mode and caches it for SetLevel.
func (l *ElectronicLoad) Mode(ctx context.Context) (LoadMode, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "mode"))
	if err != nil {
		return 0, err
	}
	m, err := parseLoadMode(resp.Payload)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	l.mode = m
	l.mu.Unlock()
	return m, nil
}

// currentMode returns the mode cached by SetMode or Mode. The load
// powers up in a front-panel-selected mode the driver cannot guess,
// so level operations require one of the two to have run first.
func (l *ElectronicLoad) currentMode() (LoadMode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == 0 {
		return 0, fmt.Errorf("operating mode not selected: %w", scpi.ErrInvalidParameter)
	}
	return l.mode, nil
}

func (l *ElectronicLoad) checkLevel(m LoadMode, value float64) error {
	lim := l.Limits()
	switch m {
	case LoadCC:
		if !lim.currentOK(value) {
			return fmt.Errorf("CC level %g outside %g..%g: %w",
				value, lim.MinCurrent, lim.MaxCurrent, scpi.ErrInvalidParameter)
		}
	case LoadCV:
		if !lim.voltageOK(value) {
			return fmt.Errorf("CV level %g outside %g..%g: %w",
				value, lim.MinVoltage, lim.MaxVoltage, scpi.ErrInvalidParameter)
		}
	default:
		if value <= 0 {
			return fmt.Errorf("%s level %g: %w", m, value, scpi.ErrInvalidParameter)
		}
	}
	return nil
}

// SetLevel programs the static level of the selected mode: amps in
// CC, volts in CV, ohms in CR, watts in CP.
func (l *ElectronicLoad) SetLevel(ctx context.Context, value float64) error {
	m, err := l.currentMode()
	if err != nil {
		return err
	}
	if err := l.checkLevel(m, value); err != nil {
		return err
	}
	_, err = l.sess.Send(ctx, scpi.Set(modLoad, levelActions[m], value))
	return err
}

// Level returns the static level of the selected mode.
func (l *ElectronicLoad) Level(ctx context.Context) (float64, error) {
	m, err := l.currentMode()
	if err != nil {
		return 0, err
	}
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, levelActions[m]))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// Enable turns the load input on.
func (l *ElectronicLoad) Enable(ctx context.Context) error {
	_, err := l.sess.Send(ctx, scpi.Set(modLoad, "input", true))
	return err
}

// Disable turns the load input off.
func (l *ElectronicLoad) Disable(ctx context.Context) error {
	_, err := l.sess.Send(ctx, scpi.Set(modLoad, "input", false))
	return err
}

// IsEnabled reports whether the load input is on.
func (l *ElectronicLoad) IsEnabled(ctx context.Context) (bool, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "input"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// MeasureVoltage takes a measurement and returns the input voltage.
func (l *ElectronicLoad) MeasureVoltage(ctx context.Context) (float64, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "measurevoltage"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// MeasureCurrent takes a measurement and returns the sink current.
func (l *ElectronicLoad) MeasureCurrent(ctx context.Context) (float64, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "measurecurrent"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// MeasurePower takes a measurement and returns the dissipated power
// in watts.
func (l *ElectronicLoad) MeasurePower(ctx context.Context) (float64, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "measurepower"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SystemError pops one entry from the load's error queue.
func (l *ElectronicLoad) SystemError(ctx context.Context) (scpi.SystemError, error) {
	resp, err := l.sess.Send(ctx, scpi.Query(modLoad, "error"))
	if err != nil {
		return scpi.SystemError{}, err
	}
	return scpi.ParseSystemError(resp.Payload)
}
