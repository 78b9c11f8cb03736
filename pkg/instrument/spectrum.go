package instrument

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Spectrum controls the FFT spectrum analyzer. Instruments carry one
// or two analyzer instances; instance 1 is addressed without a digit
// in the mnemonic tree.
type Spectrum struct {
	scope *Scope
}

// saPrefix renders the instance selector for a mnemonic. Instance 1
// is addressed without a digit.
func saPrefix(id int) string {
	if id == 1 {
		return ""
	}
	return strconv.Itoa(id)
}

func (sa *Spectrum) check(id int) error {
	if !sa.scope.prof.ValidSpectrumInstance(id) {
		return fmt.Errorf("spectrum instance %d outside 1..%d: %w",
			id, sa.scope.prof.SpectrumInstances, scpi.ErrInvalidParameter)
	}
	return nil
}

func (sa *Spectrum) checkFrequency(what string, hz float64) error {
	if hz < 0 || hz > sa.scope.prof.Limits.SpectrumFreqMax {
		return fmt.Errorf("%s %g outside 0..%g Hz: %w",
			what, hz, sa.scope.prof.Limits.SpectrumFreqMax, scpi.ErrInvalidParameter)
	}
	return nil
}

// SetOn switches the instrument into spectrum analyzer mode.
func (sa *Spectrum) SetOn(ctx context.Context) error {
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "mode", true))
	return err
}

// SetOff leaves spectrum analyzer mode.
func (sa *Spectrum) SetOff(ctx context.Context) error {
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "mode", false))
	return err
}

// IsOn reports whether the instrument is in spectrum analyzer mode.
func (sa *Spectrum) IsOn(ctx context.Context) (bool, error) {
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "mode"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// Enable feeds the analyzer instance its input signal.
func (sa *Spectrum) Enable(ctx context.Context, id int) error {
	return sa.setInput(ctx, id, true)
}

// Disable cuts the analyzer instance off its input signal.
func (sa *Spectrum) Disable(ctx context.Context, id int) error {
	return sa.setInput(ctx, id, false)
}

func (sa *Spectrum) setInput(ctx context.Context, id int, on bool) error {
	if err := sa.check(id); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "input", saPrefix(id), on))
	return err
}

// IsEnabled reports whether the analyzer instance receives its input
// signal.
func (sa *Spectrum) IsEnabled(ctx context.Context, id int) (bool, error) {
	if err := sa.check(id); err != nil {
		return false, err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "input", saPrefix(id)))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetSource routes an analog channel into the analyzer instance.
func (sa *Spectrum) SetSource(ctx context.Context, id, ch int) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if !sa.scope.prof.ValidChannel(ch) {
		return fmt.Errorf("spectrum source channel %d outside 1..%d: %w",
			ch, sa.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "source", saPrefix(id), ch))
	return err
}

// Source returns the analog channel feeding the analyzer instance.
func (sa *Spectrum) Source(ctx context.Context, id int) (int, error) {
	if err := sa.check(id); err != nil {
		return 0, err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "source", saPrefix(id)))
	if err != nil {
		return 0, err
	}
	s := strings.ToUpper(strings.TrimSpace(resp.Payload))
	ch, convErr := strconv.Atoi(strings.TrimPrefix(s, "CH"))
	if convErr != nil {
		return 0, fmt.Errorf("spectrum source %q: %w", resp.Payload, scpi.ErrMalformedResponse)
	}
	return ch, nil
}

// SetCenter sets the center frequency in Hz.
func (sa *Spectrum) SetCenter(ctx context.Context, id int, hz float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if err := sa.checkFrequency("center frequency", hz); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "frequency", saPrefix(id), hz))
	return err
}

// Center returns the center frequency in Hz.
func (sa *Spectrum) Center(ctx context.Context, id int) (float64, error) {
	return sa.queryFloat(ctx, id, "frequency")
}

// SetSpan sets the frequency span in Hz.
func (sa *Spectrum) SetSpan(ctx context.Context, id int, hz float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if err := sa.checkFrequency("span", hz); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "span", saPrefix(id), hz))
	return err
}

// Span returns the frequency span in Hz.
func (sa *Spectrum) Span(ctx context.Context, id int) (float64, error) {
	return sa.queryFloat(ctx, id, "span")
}

// SetStart sets the left edge of the displayed span in Hz.
func (sa *Spectrum) SetStart(ctx context.Context, id int, hz float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if err := sa.checkFrequency("start frequency", hz); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "start", saPrefix(id), hz))
	return err
}

// Start returns the left edge of the displayed span in Hz.
func (sa *Spectrum) Start(ctx context.Context, id int) (float64, error) {
	return sa.queryFloat(ctx, id, "start")
}

// SetStop sets the right edge of the displayed span in Hz.
func (sa *Spectrum) SetStop(ctx context.Context, id int, hz float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if err := sa.checkFrequency("stop frequency", hz); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "stop", saPrefix(id), hz))
	return err
}

// Stop returns the right edge of the displayed span in Hz.
func (sa *Spectrum) Stop(ctx context.Context, id int) (float64, error) {
	return sa.queryFloat(ctx, id, "stop")
}

func (sa *Spectrum) queryFloat(ctx context.Context, id int, action string) (float64, error) {
	if err := sa.check(id); err != nil {
		return 0, err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, action, saPrefix(id)))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// RBW returns the resolution bandwidth in Hz.
func (sa *Spectrum) RBW(ctx context.Context, id int) (float64, error) {
	return sa.queryFloat(ctx, id, "rbw")
}

// RBWMode returns the resolution bandwidth mode, AUTO or MANUAL.
func (sa *Spectrum) RBWMode(ctx context.Context, id int) (string, error) {
	if err := sa.check(id); err != nil {
		return "", err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "rbwmode", saPrefix(id)))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Payload), nil
}

func (sa *Spectrum) rbwManual(ctx context.Context, id int) (bool, error) {
	mode, err := sa.RBWMode(ctx, id)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToUpper(mode), "MAN"), nil
}

// SetManualRBW sets the resolution bandwidth in Hz. The instrument
// only honors the value in manual RBW mode, so the auto mode is
// rejected here instead of writing a value the firmware ignores.
func (sa *Spectrum) SetManualRBW(ctx context.Context, id int, hz float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if hz <= 0 {
		return fmt.Errorf("rbw %g Hz: %w", hz, scpi.ErrInvalidParameter)
	}
	manual, err := sa.rbwManual(ctx, id)
	if err != nil {
		return err
	}
	if !manual {
		return fmt.Errorf("rbw mode is AUTO on instance %d: %w", id, scpi.ErrInvalidParameter)
	}
	_, err = sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "rbw", saPrefix(id), hz))
	return err
}

// SetSpanRBWRatio sets the span to RBW ratio used by the auto RBW
// mode. Manual mode derives no RBW from the ratio, so it is rejected
// here.
func (sa *Spectrum) SetSpanRBWRatio(ctx context.Context, id, ratio int) error {
	if err := sa.check(id); err != nil {
		return err
	}
	switch ratio {
	case 1000, 2000, 5000:
	default:
		return fmt.Errorf("span/rbw ratio %d not 1000, 2000 or 5000: %w",
			ratio, scpi.ErrInvalidParameter)
	}
	manual, err := sa.rbwManual(ctx, id)
	if err != nil {
		return err
	}
	if manual {
		return fmt.Errorf("rbw mode is MANUAL on instance %d: %w", id, scpi.ErrInvalidParameter)
	}
	_, err = sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "spanratio", saPrefix(id), ratio))
	return err
}

// SetScale sets the vertical scale per division and its unit in one
// command pair.
func (sa *Spectrum) SetScale(ctx context.Context, id int, perDiv float64, unit scpi.SpectrumUnit) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if !unit.IsValid() {
		return fmt.Errorf("spectrum unit %d: %w", unit, scpi.ErrInvalidParameter)
	}
	p := saPrefix(id)
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "scale", p, unit, p, perDiv))
	return err
}

// SetPosition moves the trace baseline, in divisions.
func (sa *Spectrum) SetPosition(ctx context.Context, id int, divs float64) error {
	if err := sa.check(id); err != nil {
		return err
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "position", saPrefix(id), divs))
	return err
}

// SetWindow selects the FFT window function.
func (sa *Spectrum) SetWindow(ctx context.Context, id int, w scpi.SpectrumWindow) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if !w.IsValid() {
		return fmt.Errorf("spectrum window %d: %w", w, scpi.ErrInvalidParameter)
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "window", saPrefix(id), w))
	return err
}

// SetTraceEnabled shows or hides one trace buffer. Instance 1 traces
// live under the shared SELect tree, later instances under their own
// subtree.
func (sa *Spectrum) SetTraceEnabled(ctx context.Context, id int, t scpi.SpectrumTrace, on bool) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if !t.IsValid() {
		return fmt.Errorf("spectrum trace %d: %w", t, scpi.ErrInvalidParameter)
	}
	var err error
	if id == 1 {
		_, err = sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "select", t, on))
	} else {
		_, err = sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "instancesel", saPrefix(id), t, on))
	}
	return err
}

// TraceEnabled reports whether one trace buffer is shown.
func (sa *Spectrum) TraceEnabled(ctx context.Context, id int, t scpi.SpectrumTrace) (bool, error) {
	if err := sa.check(id); err != nil {
		return false, err
	}
	if !t.IsValid() {
		return false, fmt.Errorf("spectrum trace %d: %w", t, scpi.ErrInvalidParameter)
	}
	var (
		resp scpi.Response
		err  error
	)
	if id == 1 {
		resp, err = sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "select", t))
	} else {
		resp, err = sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "instancesel", saPrefix(id), t))
	}
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetTraceSource routes one trace buffer to the memory output that
// Trace reads from.
func (sa *Spectrum) SetTraceSource(ctx context.Context, id int, t scpi.SpectrumTrace) error {
	if err := sa.check(id); err != nil {
		return err
	}
	if !t.IsValid() {
		return fmt.Errorf("spectrum trace %d: %w", t, scpi.ErrInvalidParameter)
	}
	_, err := sa.scope.sess.Send(ctx, scpi.Set(scpi.ModSpectrum, "tracesource", saPrefix(id), t))
	return err
}

// TraceSource returns the trace buffer routed to the memory output.
func (sa *Spectrum) TraceSource(ctx context.Context, id int) (scpi.SpectrumTrace, error) {
	if err := sa.check(id); err != nil {
		return 0, err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "tracesource", saPrefix(id)))
	if err != nil {
		return 0, err
	}
	return scpi.ParseSpectrumTrace(resp.Payload)
}

// Trace transfers one trace buffer. It first routes the buffer to the
// memory output, then reads the record. Fails while an acquisition is
// in flight.
func (sa *Spectrum) Trace(ctx context.Context, id int, t scpi.SpectrumTrace) (*Record, error) {
	if err := sa.scope.Sync.Guard(); err != nil {
		return nil, err
	}
	if err := sa.SetTraceSource(ctx, id, t); err != nil {
		return nil, err
	}
	resp, err := sa.scope.sess.Send(ctx, scpi.Query(scpi.ModSpectrum, "memory", saPrefix(id)))
	if err != nil {
		return nil, err
	}
	return parseRecord(resp)
}
