package instrument

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

func TestMeasureValue(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	v, err := scope.Measure.Value(ctx, 1, "vpp")
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if v != 1000 {
		t.Errorf("value: got %v, want 1000", v)
	}
	if got := inst.LastCommand(); got != ":MEASure:SOURce1 CH1;:MEASure:PK2pk?" {
		t.Errorf("wire: got %q", got)
	}

	if _, err := scope.Measure.Value(ctx, 2, "frequency"); err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	if got := inst.LastCommand(); got != ":MEASure:SOURce1 CH2;:MEASure:FREQuency?" {
		t.Errorf("wire: got %q", got)
	}

	// Names match case-insensitively.
	if _, err := scope.Measure.Value(ctx, 1, "VPP"); err != nil {
		t.Errorf("Value(VPP) failed: %v", err)
	}
}

func TestMeasureValueRejectsUnknown(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if _, err := scope.Measure.Value(ctx, 1, "sparkle"); !errors.Is(err, scpi.ErrInvalidParameter) {
		t.Errorf("unknown name: got %v, want ErrInvalidParameter", err)
	}
	if _, err := scope.Measure.Value(ctx, 9, "vpp"); !errors.Is(err, scpi.ErrInvalidParameter) {
		t.Errorf("channel 9: got %v, want ErrInvalidParameter", err)
	}
	if n := len(inst.Commands()); n != 0 {
		t.Errorf("rejected calls sent %d commands, want 0", n)
	}
}

func TestMeasureDelay(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if _, err := scope.Measure.Delay(ctx, 1, 2, "frr"); err != nil {
		t.Fatalf("Delay failed: %v", err)
	}
	want := ":MEASure:SOURce1 CH1;:MEASure:SOURce2 CH2;:MEASure:FRRDelay?"
	if got := inst.LastCommand(); got != want {
		t.Errorf("wire: got %q, want %q", got, want)
	}

	if _, err := scope.Measure.Delay(ctx, 3, 4, "phase"); err != nil {
		t.Fatalf("Delay failed: %v", err)
	}
	want = ":MEASure:SOURce1 CH3;:MEASure:SOURce2 CH4;:MEASure:PHAse?"
	if got := inst.LastCommand(); got != want {
		t.Errorf("wire: got %q, want %q", got, want)
	}

	if _, err := scope.Measure.Delay(ctx, 1, 2, "vpp"); !errors.Is(err, scpi.ErrInvalidParameter) {
		t.Errorf("per-channel name as delay: got %v, want ErrInvalidParameter", err)
	}
}

func TestMeasurementLists(t *testing.T) {
	names := Measurements()
	if !sort.StringsAreSorted(names) {
		t.Error("Measurements not sorted")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"vpp", "frequency", "risetime", "+width"} {
		if !seen[want] {
			t.Errorf("Measurements missing %q", want)
		}
	}

	delays := DelayMeasurements()
	if !sort.StringsAreSorted(delays) {
		t.Error("DelayMeasurements not sorted")
	}
	found := false
	for _, n := range delays {
		if n == "phase" {
			found = true
		}
	}
	if !found {
		t.Error("DelayMeasurements missing phase")
	}
}
