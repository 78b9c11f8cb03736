package bench

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/benchwire-project/benchwire-go/internal/testharness/mock"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

func newMeter(t *testing.T) (*Multimeter, *mock.Instrument) {
	t.Helper()
	inst := mock.NewInstrument()
	inst.SetIdentity("GW-INSTEK,GDM-8261A,TW0001112,1.00")
	sess := benchSession(t, "gdm", inst, MeterVocabulary())
	meter, err := NewMultimeter(context.Background(), sess)
	if err != nil {
		t.Fatalf("NewMultimeter failed: %v", err)
	}
	inst.ClearCommands()
	return meter, inst
}

func TestMeterConfigure(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	if err := meter.Configure(ctx, MeterDCVoltage, 0); err != nil {
		t.Fatalf("Configure DCV auto failed: %v", err)
	}
	if err := meter.Configure(ctx, MeterACVoltage, 750); err != nil {
		t.Fatalf("Configure ACV 750 failed: %v", err)
	}
	if err := meter.Configure(ctx, MeterResistance, 1e4); err != nil {
		t.Fatalf("Configure RES 10k failed: %v", err)
	}
	if err := meter.Configure(ctx, MeterDCCurrent, 0.0001); err != nil {
		t.Fatalf("Configure DCI 100uA failed: %v", err)
	}
	assertWire(t, inst.Commands(), []string{
		"CONFigure:VOLTage:DC",
		"CONFigure:VOLTage:AC 750",
		"CONFigure:RESistance 10000",
		"CONFigure:CURRent:DC 0.0001",
	})
}

func TestMeterConfigureValidation(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	cases := []struct {
		name string
		f    MeterFunction
		rng  float64
	}{
		{"range off the table", MeterDCVoltage, 42},
		{"range on auto-only function", MeterDiode, 10},
		{"unknown function", MeterFunction(99), 0},
	}
	for _, tc := range cases {
		if err := meter.Configure(ctx, tc.f, tc.rng); !errors.Is(err, scpi.ErrInvalidParameter) {
			t.Errorf("%s: got %v, want ErrInvalidParameter", tc.name, err)
		}
	}
	if _, err := meter.Measure(ctx, MeterFunction(99)); !errors.Is(err, scpi.ErrInvalidParameter) {
		t.Errorf("Measure unknown function: got %v, want ErrInvalidParameter", err)
	}
	if n := len(inst.Commands()); n != 0 {
		t.Errorf("rejected calls reached the wire: %v", inst.Commands())
	}
}

func TestMeterMeasure(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	inst.Respond("MEASure:VOLTage:DC?", "+1.23456789E-01")
	v, err := meter.Measure(ctx, MeterDCVoltage)
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	if math.Abs(v-0.123456789) > 1e-12 {
		t.Errorf("Measure: got %g, want 0.123456789", v)
	}
	if last := inst.LastCommand(); last != "MEASure:VOLTage:DC?" {
		t.Errorf("Measure wire: got %q", last)
	}
}

func TestMeterOverload(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	inst.Respond("MEASure:RESistance?", "+9.90000000E+37")
	v, err := meter.Measure(ctx, MeterResistance)
	if err != nil {
		t.Fatalf("Measure overload failed: %v", err)
	}
	if !math.IsInf(v, 1) {
		t.Errorf("overload: got %g, want +Inf", v)
	}

	inst.Respond("MEASure:RESistance?", "-9.90000000E+37")
	v, err = meter.Measure(ctx, MeterResistance)
	if err != nil {
		t.Fatalf("Measure negative overload failed: %v", err)
	}
	if !math.IsInf(v, -1) {
		t.Errorf("negative overload: got %g, want -Inf", v)
	}
}

// A bare terminator from the meter is a protocol fault surfaced to
// the caller after a single attempt.
func TestMeterEmptyReplyNoRetry(t *testing.T) {
	var calls int
	responder := transport.ResponderFunc(func(cmd string) ([]byte, error) {
		calls++
		return []byte("\n"), nil
	})
	sess := benchSession(t, "gdm", responder, MeterVocabulary())
	meter := &Multimeter{sess: sess}

	_, err := meter.Measure(context.Background(), MeterDCVoltage)
	if !errors.Is(err, scpi.ErrMalformedResponse) {
		t.Fatalf("Measure: got %v, want ErrMalformedResponse", err)
	}
	if calls != 1 {
		t.Errorf("commands sent: got %d, want 1", calls)
	}
}

func TestMeterValue(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	inst.Respond("VAL1?", "+2.500000E+00,+0.000000E+00")
	v, err := meter.Value(ctx)
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 2.5 {
		t.Errorf("Value: got %g, want 2.5", v)
	}
}

func TestMeterFunctionQuery(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	cases := []struct {
		payload string
		want    MeterFunction
	}{
		{"VOLT", MeterDCVoltage},
		{"VOLT:AC", MeterACVoltage},
		{"FRES", MeterResistance4W},
		{"TEMP:TCO", MeterTemperature},
	}
	for _, tc := range cases {
		inst.Respond("CONFigure:FUNCtion?", tc.payload)
		f, err := meter.Function(ctx)
		if err != nil {
			t.Fatalf("Function(%s) failed: %v", tc.payload, err)
		}
		if f != tc.want {
			t.Errorf("Function(%s): got %v, want %v", tc.payload, f, tc.want)
		}
	}

	inst.Respond("CONFigure:FUNCtion?", "NON")
	if _, err := meter.Function(ctx); !errors.Is(err, scpi.ErrMalformedResponse) {
		t.Errorf("Function(NON): got %v, want ErrMalformedResponse", err)
	}
}

func TestMeterAutoRangeAndTrigger(t *testing.T) {
	meter, inst := newMeter(t)
	ctx := context.Background()

	if err := meter.SetAutoRange(ctx, true); err != nil {
		t.Fatalf("SetAutoRange failed: %v", err)
	}
	if err := meter.Abort(ctx); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if err := meter.Initiate(ctx); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}
	assertWire(t, inst.Commands(), []string{
		"CONFigure:AUTO ON", "ABORt", "INITiate:IMMediate",
	})

	inst.Respond("CONFigure:AUTO?", "1")
	if on, err := meter.AutoRange(ctx); err != nil || !on {
		t.Errorf("AutoRange: got %v, %v, want true", on, err)
	}
}
