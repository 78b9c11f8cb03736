package bench

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/session"
)

// MeterFunction is a bench multimeter measurement function. String
// returns the wire path used under CONFigure: and MEASure:.
type MeterFunction int

const (
	MeterDCVoltage MeterFunction = iota + 1
	MeterACVoltage
	MeterDCCurrent
	MeterACCurrent
	MeterResistance
	MeterResistance4W
	MeterFrequency
	MeterPeriod
	MeterCapacitance
	MeterDiode
	MeterContinuity
	MeterTemperature
)

var meterFunctionPaths = map[MeterFunction]string{
	MeterDCVoltage:    "VOLTage:DC",
	MeterACVoltage:    "VOLTage:AC",
	MeterDCCurrent:    "CURRent:DC",
	MeterACCurrent:    "CURRent:AC",
	MeterResistance:   "RESistance",
	MeterResistance4W: "FRESistance",
	MeterFrequency:    "FREQuency",
	MeterPeriod:       "PERiod",
	MeterCapacitance:  "CAPacitance",
	MeterDiode:        "DIODe",
	MeterContinuity:   "CONTinuity",
	MeterTemperature:  "TEMPerature",
}

func (f MeterFunction) String() string {
	if s, ok := meterFunctionPaths[f]; ok {
		return s
	}
	return fmt.Sprintf("MeterFunction(%d)", int(f))
}

// IsValid reports whether f names a known meter function.
func (f MeterFunction) IsValid() bool {
	_, ok := meterFunctionPaths[f]
	return ok
}

// parseMeterFunction maps the short mnemonic a CONFigure:FUNCtion?
// query answers with back to a MeterFunction. Temperature functions
// answer with the probe type appended (TEMP:TCO, TEMP:RTD, ...).
func parseMeterFunction(s string) (MeterFunction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "VOLT":
		return MeterDCVoltage, nil
	case "VOLT:AC":
		return MeterACVoltage, nil
	case "CURR":
		return MeterDCCurrent, nil
	case "CURR:AC":
		return MeterACCurrent, nil
	case "RES":
		return MeterResistance, nil
	case "FRES":
		return MeterResistance4W, nil
	case "FREQ":
		return MeterFrequency, nil
	case "PER":
		return MeterPeriod, nil
	case "CAP":
		return MeterCapacitance, nil
	case "DIOD":
		return MeterDiode, nil
	case "CONT":
		return MeterContinuity, nil
	}
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), "TEMP") {
		return MeterTemperature, nil
	}
	return 0, fmt.Errorf("meter function %q: %w", s, scpi.ErrMalformedResponse)
}

// meterRanges lists the manual ranges each function accepts. Functions
// absent from the table are auto-range only.
var meterRanges = map[MeterFunction][]float64{
	MeterDCVoltage:    {0.1, 1, 10, 100, 1000},
	MeterACVoltage:    {0.1, 1, 10, 100, 750},
	MeterDCCurrent:    {0.0001, 0.001, 0.01, 0.1, 1, 10},
	MeterACCurrent:    {0.001, 0.01, 0.1, 1, 10},
	MeterResistance:   {100, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8},
	MeterResistance4W: {100, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8},
}

func rangeOK(f MeterFunction, rng float64) bool {
	for _, r := range meterRanges[f] {
		if r == rng {
			return true
		}
	}
	return false
}

// overloadMagnitude is the reading magnitude a meter substitutes for
// an overloaded input.
const overloadMagnitude = 9.9e37

// meterReading parses one reading. Overload markers map to signed
// infinity; anything else non-numeric is a protocol fault.
func meterReading(payload string) (float64, error) {
	s := strings.TrimSpace(payload)
	if s == "" {
		return 0, fmt.Errorf("empty meter reading: %w", scpi.ErrMalformedResponse)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("meter reading %q: %w", payload, scpi.ErrMalformedResponse)
	}
	if v >= overloadMagnitude {
		return math.Inf(1), nil
	}
	if v <= -overloadMagnitude {
		return math.Inf(-1), nil
	}
	return v, nil
}

// Multimeter drives one bench multimeter of the GDM family.
//
// GDM units answer over a slow line; an empty or garbled reading is
// surfaced as a protocol error and never retried, matching the
// no-retry contract of the rest of the library.
type Multimeter struct {
	sess *session.Session

	mu    sync.Mutex
	ident *scpi.Identity
}

// NewMultimeter reads the meter's identity over sess. The session
// stays owned by the caller.
func NewMultimeter(ctx context.Context, sess *session.Session) (*Multimeter, error) {
	m := &Multimeter{sess: sess}
	if _, err := m.Identify(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Identify queries *IDN? and caches the parsed identity.
func (m *Multimeter) Identify(ctx context.Context) (scpi.Identity, error) {
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "identify"))
	if err != nil {
		return scpi.Identity{}, err
	}
	id, err := scpi.ParseIdentity(resp.Payload)
	if err != nil {
		return scpi.Identity{}, err
	}
	m.mu.Lock()
	m.ident = &id
	m.mu.Unlock()
	return id, nil
}

// Identity returns the identity cached by the last Identify.
func (m *Multimeter) Identity() (scpi.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ident == nil {
		return scpi.Identity{}, false
	}
	return *m.ident, true
}

// Configure selects the measurement function on the first display. A
// zero rng keeps auto-ranging; a non-zero rng must be one of the
// function's manual ranges.
func (m *Multimeter) Configure(ctx context.Context, f MeterFunction, rng float64) error {
	if !f.IsValid() {
		return fmt.Errorf("meter function %d: %w", int(f), scpi.ErrInvalidParameter)
	}
	if rng == 0 {
		_, err := m.sess.Send(ctx, scpi.Set(modMeter, "configure", f))
		return err
	}
	if !rangeOK(f, rng) {
		return fmt.Errorf("range %g not valid for %s: %w", rng, f, scpi.ErrInvalidParameter)
	}
	_, err := m.sess.Send(ctx, scpi.Set(modMeter, "configurerange", f, rng))
	return err
}

// Function returns the measurement function currently selected on the
// first display.
func (m *Multimeter) Function(ctx context.Context) (MeterFunction, error) {
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "function"))
	if err != nil {
		return 0, err
	}
	return parseMeterFunction(resp.Payload)
}

// SetAutoRange turns auto-ranging on or off for the selected function.
func (m *Multimeter) SetAutoRange(ctx context.Context, on bool) error {
	_, err := m.sess.Send(ctx, scpi.Set(modMeter, "autorange", on))
	return err
}

// AutoRange reports whether the selected function is auto-ranging.
func (m *Multimeter) AutoRange(ctx context.Context) (bool, error) {
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "autorange"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// Measure configures function f, triggers one reading and returns it.
// Overloaded inputs read as signed infinity.
func (m *Multimeter) Measure(ctx context.Context, f MeterFunction) (float64, error) {
	if !f.IsValid() {
		return 0, fmt.Errorf("meter function %d: %w", int(f), scpi.ErrInvalidParameter)
	}
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "measure", f))
	if err != nil {
		return 0, err
	}
	return meterReading(resp.Payload)
}

// Value returns the primary reading on the first display. Displays
// that show more than one quantity answer with a comma-separated
// list; Value parses the first entry.
func (m *Multimeter) Value(ctx context.Context) (float64, error) {
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "value"))
	if err != nil {
		return 0, err
	}
	first, _, _ := strings.Cut(resp.Payload, ",")
	return meterReading(first)
}

// Abort stops a measurement in progress and returns the meter to the
// trigger idle state.
func (m *Multimeter) Abort(ctx context.Context) error {
	_, err := m.sess.Send(ctx, scpi.Set(modMeter, "abort"))
	return err
}

// Initiate arms the trigger system and clears reading memory.
func (m *Multimeter) Initiate(ctx context.Context) error {
	_, err := m.sess.Send(ctx, scpi.Set(modMeter, "initiate"))
	return err
}

// SystemError pops one entry from the meter's error queue.
func (m *Multimeter) SystemError(ctx context.Context) (scpi.SystemError, error) {
	resp, err := m.sess.Send(ctx, scpi.Query(modMeter, "error"))
	if err != nil {
		return scpi.SystemError{}, err
	}
	return scpi.ParseSystemError(resp.Payload)
}
