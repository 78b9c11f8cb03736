package instrument

import (
	"context"
	"fmt"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Timebase controls the horizontal axis.
type Timebase struct {
	scope *Scope
}

// SetScale sets the horizontal scale in seconds per division.
func (tb *Timebase) SetScale(ctx context.Context, secs float64) error {
	lim := tb.scope.prof.Limits
	if secs < lim.HorizontalScaleMin || secs > lim.HorizontalScaleMax {
		return fmt.Errorf("timebase %g outside %g..%g: %w",
			secs, lim.HorizontalScaleMin, lim.HorizontalScaleMax, scpi.ErrInvalidParameter)
	}
	_, err := tb.scope.sess.Send(ctx, scpi.Set(scpi.ModTimebase, "scale", secs))
	return err
}

// Scale returns the horizontal scale in seconds per division.
func (tb *Timebase) Scale(ctx context.Context) (float64, error) {
	resp, err := tb.scope.sess.Send(ctx, scpi.Query(scpi.ModTimebase, "scale"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetPosition sets the horizontal position in seconds.
func (tb *Timebase) SetPosition(ctx context.Context, secs float64) error {
	_, err := tb.scope.sess.Send(ctx, scpi.Set(scpi.ModTimebase, "position", secs))
	return err
}

// Position returns the horizontal position in seconds.
func (tb *Timebase) Position(ctx context.Context) (float64, error) {
	resp, err := tb.scope.sess.Send(ctx, scpi.Query(scpi.ModTimebase, "position"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetWindowScale sets the zoom window scale in seconds per division.
func (tb *Timebase) SetWindowScale(ctx context.Context, secs float64) error {
	_, err := tb.scope.sess.Send(ctx, scpi.Set(scpi.ModTimebase, "windowscale", secs))
	return err
}

// WindowScale returns the zoom window scale in seconds per division.
func (tb *Timebase) WindowScale(ctx context.Context) (float64, error) {
	resp, err := tb.scope.sess.Send(ctx, scpi.Query(scpi.ModTimebase, "windowscale"))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// SetMode selects the main, zoom window, or XY display mode.
func (tb *Timebase) SetMode(ctx context.Context, m scpi.TimebaseMode) error {
	if !m.IsValid() {
		return fmt.Errorf("timebase mode %d: %w", m, scpi.ErrInvalidParameter)
	}
	_, err := tb.scope.sess.Send(ctx, scpi.Set(scpi.ModTimebase, "mode", m))
	return err
}

// Mode returns the display mode.
func (tb *Timebase) Mode(ctx context.Context) (scpi.TimebaseMode, error) {
	resp, err := tb.scope.sess.Send(ctx, scpi.Query(scpi.ModTimebase, "mode"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseTimebaseMode(resp.Payload)
}
