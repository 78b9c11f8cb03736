package instrument

import (
	"context"
	"errors"
	"testing"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

func TestTriggerCommands(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	tr := scope.Trigger

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"type", func() error { return tr.SetType(ctx, scpi.TriggerEdge) }, ":TRIG:TYP EDGe"},
		{"source channel", func() error { return tr.SetSource(ctx, scpi.TriggerSourceCH2) }, ":TRIG:SOUR CH2"},
		{"source ext", func() error { return tr.SetSource(ctx, scpi.TriggerSourceExt) }, ":TRIG:SOUR EXT"},
		{"source digital", func() error { return tr.SetSource(ctx, scpi.DigitalSource(3)) }, ":TRIG:SOUR D3"},
		{"mode", func() error { return tr.SetMode(ctx, scpi.TriggerNormal) }, ":TRIG:MOD NORMal"},
		{"coupling", func() error { return tr.SetCoupling(ctx, scpi.TriggerCouplingHF) }, ":TRIG:COUP HF"},
		{"level", func() error { return tr.SetLevel(ctx, 0.5) }, ":TRIG:LEV 0.5"},
		{"holdoff", func() error { return tr.SetHoldoff(ctx, 1e-3) }, ":TRIGger:HOLDoff 0.001"},
		{"noise reject", func() error { return tr.SetNoiseRejection(ctx, true) }, ":TRIGger:NREJ ON"},
		{"ext ratio", func() error { return tr.SetExternalProbeRatio(ctx, 10) }, ":TRIG:EXTER:PROB:RAT 10"},
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

	ty, err := tr.Type(ctx)
	if err != nil || ty != scpi.TriggerEdge {
		t.Errorf("Type: got %v, %v", ty, err)
	}
	src, err := tr.Source(ctx)
	if err != nil || src != scpi.DigitalSource(3) {
		t.Errorf("Source: got %v, %v", src, err)
	}
	m, err := tr.Mode(ctx)
	if err != nil || m != scpi.TriggerNormal {
		t.Errorf("Mode: got %v, %v", m, err)
	}
	lv, err := tr.Level(ctx)
	if err != nil || lv != 0.5 {
		t.Errorf("Level: got %v, %v", lv, err)
	}
}

func TestTriggerFrequency(t *testing.T) {
	scope, inst := newTestScope(t)
	inst.Respond(":TRIGger:FREQuency?", "1.0e+03")

	f, err := scope.Trigger.Frequency(context.Background())
	if err != nil {
		t.Fatalf("Frequency failed: %v", err)
	}
	if f != 1000 {
		t.Errorf("frequency: got %v, want 1000", f)
	}
}

func TestTriggerValidation(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	tr := scope.Trigger

	tests := []struct {
		name string
		call func() error
	}{
		{"type undefined", func() error { return tr.SetType(ctx, scpi.TriggerType(99)) }},
		{"holdoff long", func() error { return tr.SetHoldoff(ctx, 100) }},
		{"holdoff short", func() error { return tr.SetHoldoff(ctx, 1e-12) }},
		{"ext ratio zero", func() error { return tr.SetExternalProbeRatio(ctx, 0) }},
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

func TestTriggerSourceGatedByProfile(t *testing.T) {
	scope, inst := newFamilyScope(t, "bw2000e")

	err := scope.Trigger.SetSource(context.Background(), scpi.TriggerSourceCH3)
	if !errors.Is(err, scpi.ErrInvalidParameter) {
		t.Errorf("SetSource(CH3) on 2-channel family: got %v, want ErrInvalidParameter", err)
	}
	if n := len(inst.Commands()); n != 0 {
		t.Errorf("rejected call sent %d commands, want 0", n)
	}
}

func TestTriggerSetup(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Trigger.Setup(ctx, scpi.TriggerNormal, scpi.TriggerSourceCH1, 0.25); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	want := []string{":TRIG:MOD NORMal", ":TRIG:SOUR CH1", ":TRIG:LEV 0.25"}
	got := inst.Commands()
	if len(got) != len(want) {
		t.Fatalf("commands: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTriggerSetupStopsAtFirstFailure(t *testing.T) {
	scope, inst := newTestScope(t)
	wireErr := errors.New("wire broke")
	inst.Fail(":TRIG:SOUR CH2", wireErr)

	err := scope.Trigger.Setup(context.Background(), scpi.TriggerAuto, scpi.TriggerSourceCH2, 0.1)
	if !errors.Is(err, wireErr) {
		t.Fatalf("Setup: got %v, want the injected error", err)
	}
	if last := inst.LastCommand(); last != ":TRIG:SOUR CH2" {
		t.Errorf("last command: got %q, want :TRIG:SOUR CH2", last)
	}
}
