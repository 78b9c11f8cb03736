package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

func TestChannelCommands(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	ch := scope.Channel

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"display on", func() error { return ch.SetOn(ctx, 2) }, ":CHAN2:DISP ON"},
		{"display off", func() error { return ch.SetOff(ctx, 2) }, ":CHAN2:DISP OFF"},
		{"scale", func() error { return ch.SetScale(ctx, 1, 0.5) }, ":CHAN1:SCAL 0.5"},
		{"position", func() error { return ch.SetPosition(ctx, 1, 2.5) }, ":CHAN1:POS 2.5"},
		{"coupling", func() error { return ch.SetCoupling(ctx, 1, scpi.CouplingAC) }, ":CHAN1:COUP AC"},
		{"probe ratio", func() error { return ch.SetProbeRatio(ctx, 1, 10) }, ":CHAN1:PROB:RAT 10"},
		{"probe type", func() error { return ch.SetProbeType(ctx, 1, scpi.ProbeCurrent) }, ":CHAN1:PROB:TYP CURRent"},
		{"bandwidth full", func() error { return ch.SetBandwidthLimit(ctx, 1, 0) }, ":CHANnel1:BWLimit FULL"},
		{"bandwidth 20M", func() error { return ch.SetBandwidthLimit(ctx, 1, 2e7) }, ":CHANnel1:BWLimit 2e+07"},
		{"deskew", func() error { return ch.SetDeskew(ctx, 1, 1e-8) }, ":CHANnel1:DESKew 1e-08"},
		{"invert", func() error { return ch.SetInvert(ctx, 1, true) }, ":CHANnel1:INVert ON"},
		{"impedance", func() error { return ch.SetImpedance(ctx, 1, 50) }, ":CHANnel1:IMPedance 50"},
		{"expand", func() error { return ch.SetExpandMode(ctx, 1, scpi.ExpandCenter) }, ":CHANnel1:EXPand CENTer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s failed: %v", tt.name, err)
			}
			if got := inst.LastCommand(); got != tt.want {
				t.Errorf("wire: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChannelValidation(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	ch := scope.Channel

	tests := []struct {
		name string
		call func() error
	}{
		{"channel zero", func() error { return ch.SetScale(ctx, 0, 1) }},
		{"channel high", func() error { return ch.SetScale(ctx, 5, 1) }},
		{"scale high", func() error { return ch.SetScale(ctx, 1, 100) }},
		{"position high", func() error { return ch.SetPosition(ctx, 1, 51) }},
		{"coupling undefined", func() error { return ch.SetCoupling(ctx, 1, scpi.Coupling(99)) }},
		{"impedance odd", func() error { return ch.SetImpedance(ctx, 1, 75) }},
		{"bandwidth negative", func() error { return ch.SetBandwidthLimit(ctx, 1, -1) }},
		{"deskew high", func() error { return ch.SetDeskew(ctx, 1, 1e-6) }},
		{"probe ratio high", func() error { return ch.SetProbeRatio(ctx, 1, 5000) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, scpi.ErrInvalidParameter) {
				t.Errorf("got %v, want ErrInvalidParameter", err)
			}
		})
	}
	if n := len(inst.Commands()); n != 0 {
		t.Errorf("rejected calls sent %d commands, want 0", n)
	}
}

func TestChannelCacheAndQueries(t *testing.T) {
	scope, _ := newTestScope(t)
	ctx := context.Background()
	ch := scope.Channel

	if err := ch.SetScale(ctx, 1, 0.2); err != nil {
		t.Fatalf("SetScale failed: %v", err)
	}
	if err := ch.SetPosition(ctx, 1, 1.5); err != nil {
		t.Fatalf("SetPosition failed: %v", err)
	}
	if err := ch.SetOn(ctx, 1); err != nil {
		t.Fatalf("SetOn failed: %v", err)
	}
	st, ok := ch.Cached(1)
	if !ok {
		t.Fatal("no cached state after writes")
	}
	if st.Scale != 0.2 || st.Position != 1.5 || !st.Enabled {
		t.Errorf("cached state: got %+v", st)
	}

	v, err := ch.Scale(ctx, 1)
	if err != nil || v != 0.2 {
		t.Errorf("Scale: got %v, %v", v, err)
	}
	on, err := ch.IsOn(ctx, 1)
	if err != nil || !on {
		t.Errorf("IsOn: got %v, %v", on, err)
	}

	if err := ch.SetCoupling(ctx, 2, scpi.CouplingGND); err != nil {
		t.Fatalf("SetCoupling failed: %v", err)
	}
	cp, err := ch.Coupling(ctx, 2)
	if err != nil || cp != scpi.CouplingGND {
		t.Errorf("Coupling: got %v, %v", cp, err)
	}

	if err := ch.SetProbeType(ctx, 2, scpi.ProbeVoltage); err != nil {
		t.Fatalf("SetProbeType failed: %v", err)
	}
	pt, err := ch.ProbeType(ctx, 2)
	if err != nil || pt != scpi.ProbeVoltage {
		t.Errorf("ProbeType: got %v, %v", pt, err)
	}

	if err := ch.SetDeskew(ctx, 2, 2e-9); err != nil {
		t.Fatalf("SetDeskew failed: %v", err)
	}
	dk, err := ch.Deskew(ctx, 2)
	if err != nil || dk != 2e-9 {
		t.Errorf("Deskew: got %v, %v", dk, err)
	}
}

func TestChannelCacheSkipsFailedWrites(t *testing.T) {
	scope, inst := newTestScope(t)
	wireErr := errors.New("wire broke")
	inst.Fail(":CHAN1:SCAL 5", wireErr)

	if err := scope.Channel.SetScale(context.Background(), 1, 5); !errors.Is(err, wireErr) {
		t.Fatalf("SetScale: got %v, want the injected error", err)
	}
	if _, ok := scope.Channel.Cached(1); ok {
		t.Error("failed write populated the cache")
	}
}
