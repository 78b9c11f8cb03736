package profile

import "testing"

func TestBenchByClass(t *testing.T) {
	tests := []struct {
		class    string
		wantBaud int
		wantOK   bool
	}{
		{"PSW", 115200, true},
		{"psw", 115200, true},
		{"PFR", 115200, true},
		{"PPX", 115200, true},
		{"PEL", 115200, true},
		{"GDM", 9600, true},
		{"gdm", 9600, true},
		{"XYZ", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.class, func(t *testing.T) {
			p, ok := BenchByClass(tt.class)
			if ok != tt.wantOK {
				t.Fatalf("BenchByClass(%q): got ok=%v, want %v", tt.class, ok, tt.wantOK)
			}
			if ok && p.Baud != tt.wantBaud {
				t.Errorf("Baud: got %d, want %d", p.Baud, tt.wantBaud)
			}
		})
	}
}

func TestBenchClassesSorted(t *testing.T) {
	classes := BenchClasses()
	want := []string{"GDM", "PEL", "PFR", "PPX", "PSW"}
	if len(classes) != len(want) {
		t.Fatalf("BenchClasses: got %v, want %v", classes, want)
	}
	for i := range want {
		if classes[i] != want[i] {
			t.Errorf("BenchClasses[%d]: got %q, want %q", i, classes[i], want[i])
		}
	}
}

func TestBenchTimingGap(t *testing.T) {
	p, ok := BenchByClass("PSW")
	if !ok {
		t.Fatal("PSW class missing")
	}
	if p.Timing.CommandGapMS != 100 {
		t.Errorf("CommandGapMS: got %d, want 100", p.Timing.CommandGapMS)
	}
}
