package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadBuiltinFamilies(t *testing.T) {
	p, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Family != "bw2000p" {
		t.Errorf("Family: got %q, want %q", p.Family, "bw2000p")
	}
	if p.Channels != 4 {
		t.Errorf("Channels: got %d, want 4", p.Channels)
	}
	if p.AWGChannels != 2 {
		t.Errorf("AWGChannels: got %d, want 2", p.AWGChannels)
	}
	if !p.HasDMM {
		t.Error("HasDMM: got false, want true")
	}
	if !p.HasPower() {
		t.Error("HasPower: got false, want true")
	}
	if p.SpectrumInstances != 2 {
		t.Errorf("SpectrumInstances: got %d, want 2", p.SpectrumInstances)
	}
	if p.VocabVersion != "1.0" {
		t.Errorf("VocabVersion: got %q, want %q", p.VocabVersion, "1.0")
	}

	e, err := Load("bw2000e")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if e.Channels != 2 {
		t.Errorf("Channels: got %d, want 2", e.Channels)
	}
	if e.AWGChannels != 0 || e.HasDMM || e.HasPower() {
		t.Error("essential family claims generator, meter or supply")
	}
}

func TestLoadUnknownFamily(t *testing.T) {
	if _, err := Load("bw9999x"); err == nil {
		t.Fatal("Load succeeded for unknown family")
	}
}

func TestLoadReturnsCopy(t *testing.T) {
	p1, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p1.Channels = 99
	p1.BusTypes[0] = "mutated"
	p1.Limits.RecordLengths[0] = -1

	p2, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p2.Channels != 4 {
		t.Errorf("Channels after mutation: got %d, want 4", p2.Channels)
	}
	if p2.BusTypes[0] != "uart" {
		t.Errorf("BusTypes[0] after mutation: got %q, want %q", p2.BusTypes[0], "uart")
	}
	if p2.Limits.RecordLengths[0] != 1000 {
		t.Errorf("RecordLengths[0] after mutation: got %d, want 1000", p2.Limits.RecordLengths[0])
	}
}

func TestFamilies(t *testing.T) {
	families, err := Families()
	if err != nil {
		t.Fatalf("Families failed: %v", err)
	}
	want := []string{"bw2000e", "bw2000p"}
	if len(families) != len(want) {
		t.Fatalf("Families: got %v, want %v", families, want)
	}
	for i := range want {
		if families[i] != want[i] {
			t.Errorf("Families[%d]: got %q, want %q", i, families[i], want[i])
		}
	}
}

func TestForModel(t *testing.T) {
	tests := []struct {
		model    string
		family   string
		channels int
	}{
		{"BW-2204P", "bw2000p", 4},
		{"BW-2202P", "bw2000p", 2},
		{"bw-2204p", "bw2000p", 4},
		{"BW-2202E", "bw2000e", 2},
		{"BW-2204E", "bw2000e", 4},
		{"GENERIC", "bw2000e", 2},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := ForModel(tt.model)
			if err != nil {
				t.Fatalf("ForModel failed: %v", err)
			}
			if p.Family != tt.family {
				t.Errorf("Family: got %q, want %q", p.Family, tt.family)
			}
			if p.Channels != tt.channels {
				t.Errorf("Channels: got %d, want %d", p.Channels, tt.channels)
			}
		})
	}
}

func TestIndexValidation(t *testing.T) {
	p, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !p.ValidChannel(1) || !p.ValidChannel(4) {
		t.Error("channels 1 and 4 should be valid")
	}
	if p.ValidChannel(0) || p.ValidChannel(5) {
		t.Error("channels 0 and 5 should be invalid")
	}
	if !p.ValidAWGChannel(2) || p.ValidAWGChannel(3) {
		t.Error("AWG channel validation wrong")
	}
	if !p.ValidPowerOutput(1) || p.ValidPowerOutput(3) {
		t.Error("power output validation wrong")
	}
	if !p.ValidSpectrumInstance(2) || p.ValidSpectrumInstance(3) {
		t.Error("spectrum instance validation wrong")
	}
}

func TestSupportsBus(t *testing.T) {
	p, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	e, err := Load("bw2000e")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	tests := []struct {
		profile *Profile
		name    string
		want    bool
	}{
		{p, "UART", true},
		{p, "uart", true},
		{p, "CANFD", true},
		{p, "FLEXray", true},
		{p, "USBPD", true},
		{e, "UART", true},
		{e, "PARallel", true},
		{e, "CANFD", false},
		{e, "USB2", false},
		{e, "I2S", false},
	}

	for _, tt := range tests {
		if got := tt.profile.SupportsBus(tt.name); got != tt.want {
			t.Errorf("%s.SupportsBus(%q): got %v, want %v", tt.profile.Family, tt.name, got, tt.want)
		}
	}
}

func TestTimingDurations(t *testing.T) {
	tm := Timing{CommandGapMS: 100, CommandTimeoutMS: 5000, ConnectTimeoutMS: 3000, AcquirePollMS: 50}
	if tm.CommandGap() != 100*time.Millisecond {
		t.Errorf("CommandGap: got %v, want 100ms", tm.CommandGap())
	}
	if tm.CommandTimeout() != 5*time.Second {
		t.Errorf("CommandTimeout: got %v, want 5s", tm.CommandTimeout())
	}
	if tm.ConnectTimeout() != 3*time.Second {
		t.Errorf("ConnectTimeout: got %v, want 3s", tm.ConnectTimeout())
	}
	if tm.AcquirePoll() != 50*time.Millisecond {
		t.Errorf("AcquirePoll: got %v, want 50ms", tm.AcquirePoll())
	}
}

func TestRecordLengthOK(t *testing.T) {
	p, err := Load("bw2000p")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !p.Limits.RecordLengthOK(10000) {
		t.Error("10000 should be a legal record length")
	}
	if p.Limits.RecordLengthOK(12345) {
		t.Error("12345 should not be a legal record length")
	}
}

func TestLoadFile(t *testing.T) {
	content := `family: lab-override
channels: 2
vocab_version: "1.0"
limits:
  vertical_scale_min: 0.002
  vertical_scale_max: 5.0
timing:
  command_gap_ms: 20
`
	path := filepath.Join(t.TempDir(), "lab.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if p.Family != "lab-override" {
		t.Errorf("Family: got %q, want %q", p.Family, "lab-override")
	}
	if p.Limits.VerticalScaleMin != 0.002 {
		t.Errorf("VerticalScaleMin: got %v, want 0.002", p.Limits.VerticalScaleMin)
	}
	if p.Timing.CommandGapMS != 20 {
		t.Errorf("CommandGapMS: got %d, want 20", p.Timing.CommandGapMS)
	}
	// Unset windows take defaults.
	if p.Timing.CommandTimeoutMS != 5000 {
		t.Errorf("CommandTimeoutMS default: got %d, want 5000", p.Timing.CommandTimeoutMS)
	}
	if p.Timing.AcquirePollMS != 100 {
		t.Errorf("AcquirePollMS default: got %d, want 100", p.Timing.AcquirePollMS)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("LoadFile succeeded for a missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"valid", Profile{Family: "x", Channels: 2}, false},
		{"no family", Profile{Channels: 2}, true},
		{"zero channels", Profile{Family: "x"}, true},
		{"bad vocab version", Profile{Family: "x", Channels: 2, VocabVersion: "one.zero"}, true},
		{"negative gap", Profile{Family: "x", Channels: 2, Timing: Timing{CommandGapMS: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate: got %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
