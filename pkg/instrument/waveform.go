package instrument

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// Record is one transferred sample memory: the header fields the
// instrument prepends and the raw samples that follow.
type Record struct {
	Info    map[string]string
	Samples []int16
}

func (r *Record) infoFloat(key string) (float64, error) {
	v, ok := r.Info[key]
	if !ok {
		return 0, fmt.Errorf("record header missing %q: %w", key, scpi.ErrMalformedResponse)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("record header %s %q: %w", key, v, scpi.ErrMalformedResponse)
	}
	return f, nil
}

// VerticalScale returns the volts per division the record was
// captured at.
func (r *Record) VerticalScale() (float64, error) {
	return r.infoFloat("Vertical Scale")
}

// VerticalPosition returns the vertical offset the record was
// captured at.
func (r *Record) VerticalPosition() (float64, error) {
	return r.infoFloat("Vertical Position")
}

// MemoryLength returns the record length in samples.
func (r *Record) MemoryLength() (int, error) {
	f, err := r.infoFloat("Memory Length")
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// SampleRate returns the capture sample rate in Hz.
func (r *Record) SampleRate() (float64, error) {
	return r.infoFloat("Sample Rate")
}

// Volts converts the raw samples using the header's vertical scale.
// A raw count of 25 is one display division.
func (r *Record) Volts() ([]float64, error) {
	scale, err := r.VerticalScale()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = float64(s) * scale / 25
	}
	return out, nil
}

// parseRecord splits a two-part memory response into header fields
// and big-endian 16-bit samples.
func parseRecord(resp scpi.Response) (*Record, error) {
	rec := &Record{Info: make(map[string]string)}
	for _, field := range strings.Split(resp.Payload, ";") {
		key, value, ok := strings.Cut(field, ",")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		rec.Info[key] = strings.TrimSpace(value)
	}
	if len(resp.Block)%2 != 0 {
		return nil, fmt.Errorf("sample block of %d bytes: %w", len(resp.Block), scpi.ErrMalformedResponse)
	}
	rec.Samples = make([]int16, len(resp.Block)/2)
	for i := range rec.Samples {
		rec.Samples[i] = int16(binary.BigEndian.Uint16(resp.Block[i*2:]))
	}
	return rec, nil
}

// Waveform transfers captured sample memory.
type Waveform struct {
	scope *Scope
}

// Acquire transfers the sample memory of one channel. The instrument
// only prepends the record header when header mode is on, so header
// mode is switched on first when needed. Fails while an acquisition
// is in flight.
func (w *Waveform) Acquire(ctx context.Context, ch int) (*Record, error) {
	if err := w.scope.Sync.Guard(); err != nil {
		return nil, err
	}
	if !w.scope.prof.ValidChannel(ch) {
		return nil, fmt.Errorf("channel %d outside 1..%d: %w",
			ch, w.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	if err := w.ensureHeader(ctx); err != nil {
		return nil, err
	}
	resp, err := w.scope.sess.Send(ctx, scpi.Query(scpi.ModWaveform, "memory", ch))
	if err != nil {
		return nil, err
	}
	return parseRecord(resp)
}

func (w *Waveform) ensureHeader(ctx context.Context) error {
	resp, err := w.scope.sess.Send(ctx, scpi.Query(scpi.ModSystem, "header"))
	if err != nil {
		return err
	}
	on, err := resp.Bool()
	if err != nil {
		return err
	}
	if on {
		return nil
	}
	_, err = w.scope.sess.Send(ctx, scpi.Set(scpi.ModSystem, "header", true))
	return err
}
