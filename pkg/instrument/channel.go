package instrument

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// ChannelState is the cached last-known state of one analog channel.
// It updates only after a successful round trip and never substitutes
// for a query.
type ChannelState struct {
	Enabled  bool
	Scale    float64
	Position float64
}

// Channel controls the analog input channels.
type Channel struct {
	scope *Scope

	mu    sync.Mutex
	state map[int]*ChannelState
}

func (c *Channel) check(ch int) error {
	if !c.scope.prof.ValidChannel(ch) {
		return fmt.Errorf("channel %d outside 1..%d: %w",
			ch, c.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	return nil
}

// Cached returns the cached state of a channel, if any operation has
// touched it since the last invalidation.
func (c *Channel) Cached(ch int) (ChannelState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.state[ch]
	if !ok {
		return ChannelState{}, false
	}
	return *s, true
}

func (c *Channel) invalidate() {
	c.mu.Lock()
	c.state = make(map[int]*ChannelState)
	c.mu.Unlock()
}

// stateFor returns the cache entry for ch, creating it. Caller holds
// c.mu.
func (c *Channel) stateFor(ch int) *ChannelState {
	s, ok := c.state[ch]
	if !ok {
		s = &ChannelState{}
		c.state[ch] = s
	}
	return s
}

// SetOn turns a channel's display on. Issued even when the cache says
// the channel is already on.
func (c *Channel) SetOn(ctx context.Context, ch int) error {
	return c.setDisplay(ctx, ch, true)
}

// SetOff turns a channel's display off.
func (c *Channel) SetOff(ctx context.Context, ch int) error {
	return c.setDisplay(ctx, ch, false)
}

func (c *Channel) setDisplay(ctx context.Context, ch int, on bool) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if _, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "display", ch, on)); err != nil {
		return err
	}
	c.mu.Lock()
	c.stateFor(ch).Enabled = on
	c.mu.Unlock()
	return nil
}

// IsOn reports whether a channel's display is on.
func (c *Channel) IsOn(ctx context.Context, ch int) (bool, error) {
	if err := c.check(ch); err != nil {
		return false, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "display", ch))
	if err != nil {
		return false, err
	}
	on, err := resp.Bool()
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.stateFor(ch).Enabled = on
	c.mu.Unlock()
	return on, nil
}

// SetScale sets the vertical scale in volts per division.
func (c *Channel) SetScale(ctx context.Context, ch int, volts float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	lim := c.scope.prof.Limits
	if volts < lim.VerticalScaleMin || volts > lim.VerticalScaleMax {
		return fmt.Errorf("scale %g outside %g..%g: %w",
			volts, lim.VerticalScaleMin, lim.VerticalScaleMax, scpi.ErrInvalidParameter)
	}
	if _, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "scale", ch, volts)); err != nil {
		return err
	}
	c.mu.Lock()
	c.stateFor(ch).Scale = volts
	c.mu.Unlock()
	return nil
}

// Scale returns the vertical scale in volts per division.
func (c *Channel) Scale(ctx context.Context, ch int) (float64, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "scale", ch))
	if err != nil {
		return 0, err
	}
	v, err := resp.Float()
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.stateFor(ch).Scale = v
	c.mu.Unlock()
	return v, nil
}

// SetPosition sets the vertical position in volts.
func (c *Channel) SetPosition(ctx context.Context, ch int, volts float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if max := c.scope.prof.Limits.VerticalPositionMax; math.Abs(volts) > max {
		return fmt.Errorf("position %g outside +-%g: %w", volts, max, scpi.ErrInvalidParameter)
	}
	if _, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "position", ch, volts)); err != nil {
		return err
	}
	c.mu.Lock()
	c.stateFor(ch).Position = volts
	c.mu.Unlock()
	return nil
}

// Position returns the vertical position in volts.
func (c *Channel) Position(ctx context.Context, ch int) (float64, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "position", ch))
	if err != nil {
		return 0, err
	}
	v, err := resp.Float()
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.stateFor(ch).Position = v
	c.mu.Unlock()
	return v, nil
}

// SetCoupling sets the input coupling.
func (c *Channel) SetCoupling(ctx context.Context, ch int, cp scpi.Coupling) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if !cp.IsValid() {
		return fmt.Errorf("coupling %d: %w", cp, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "coupling", ch, cp))
	return err
}

// Coupling returns the input coupling.
func (c *Channel) Coupling(ctx context.Context, ch int) (scpi.Coupling, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "coupling", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseCoupling(resp.Payload)
}

// SetProbeRatio sets the probe attenuation factor.
func (c *Channel) SetProbeRatio(ctx context.Context, ch int, ratio float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	lim := c.scope.prof.Limits
	if ratio < lim.ProbeRatioMin || ratio > lim.ProbeRatioMax {
		return fmt.Errorf("probe ratio %g outside %g..%g: %w",
			ratio, lim.ProbeRatioMin, lim.ProbeRatioMax, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "proberatio", ch, ratio))
	return err
}

// ProbeRatio returns the probe attenuation factor.
func (c *Channel) ProbeRatio(ctx context.Context, ch int) (float64, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "proberatio", ch))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetProbeType selects a voltage or current probe.
func (c *Channel) SetProbeType(ctx context.Context, ch int, p scpi.ProbeType) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if !p.IsValid() {
		return fmt.Errorf("probe type %d: %w", p, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "probetype", ch, p))
	return err
}

// ProbeType returns the configured probe type.
func (c *Channel) ProbeType(ctx context.Context, ch int) (scpi.ProbeType, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "probetype", ch))
	if err != nil {
		return 0, err
	}
	return scpi.ParseProbeType(resp.Payload)
}

// SetBandwidthLimit caps the channel bandwidth at hz; zero restores
// full bandwidth.
func (c *Channel) SetBandwidthLimit(ctx context.Context, ch int, hz float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if hz < 0 {
		return fmt.Errorf("bandwidth %g: %w", hz, scpi.ErrInvalidParameter)
	}
	var arg any = hz
	if hz == 0 {
		arg = "FULL"
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "bwlimit", ch, arg))
	return err
}

// SetDeskew compensates probe skew in seconds.
func (c *Channel) SetDeskew(ctx context.Context, ch int, secs float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if max := c.scope.prof.Limits.DeskewMax; math.Abs(secs) > max {
		return fmt.Errorf("deskew %g outside +-%g: %w", secs, max, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "deskew", ch, secs))
	return err
}

// Deskew returns the probe skew compensation in seconds.
func (c *Channel) Deskew(ctx context.Context, ch int) (float64, error) {
	if err := c.check(ch); err != nil {
		return 0, err
	}
	resp, err := c.scope.sess.Send(ctx, scpi.Query(scpi.ModChannel, "deskew", ch))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetInvert inverts the channel display.
func (c *Channel) SetInvert(ctx context.Context, ch int, on bool) error {
	if err := c.check(ch); err != nil {
		return err
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "invert", ch, on))
	return err
}

// SetImpedance sets input termination to 50 ohm or 1 Mohm.
func (c *Channel) SetImpedance(ctx context.Context, ch int, ohms float64) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if ohms != 50 && ohms != 1e6 {
		return fmt.Errorf("impedance %g not 50 or 1e6: %w", ohms, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "impedance", ch, ohms))
	return err
}

// SetExpandMode selects the reference for vertical scale changes.
func (c *Channel) SetExpandMode(ctx context.Context, ch int, m scpi.ExpandMode) error {
	if err := c.check(ch); err != nil {
		return err
	}
	if !m.IsValid() {
		return fmt.Errorf("expand mode %d: %w", m, scpi.ErrInvalidParameter)
	}
	_, err := c.scope.sess.Send(ctx, scpi.Set(scpi.ModChannel, "expand", ch, m))
	return err
}
