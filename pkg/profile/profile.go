package profile

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/benchwire-project/benchwire-go/pkg/version"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

// Profile describes one instrument family.
type Profile struct {
	Family            string   `yaml:"family"`
	Description       string   `yaml:"description"`
	Channels          int      `yaml:"channels"`
	AWGChannels       int      `yaml:"awg_channels"`
	PowerOutputs      int      `yaml:"power_outputs"`
	HasDMM            bool     `yaml:"dmm"`
	SpectrumInstances int      `yaml:"spectrum_instances"`
	BusTypes          []string `yaml:"bus_types"`
	VocabVersion      string   `yaml:"vocab_version"`
	Limits            Limits   `yaml:"limits"`
	Timing            Timing   `yaml:"timing"`
}

// Limits holds the legal parameter ranges the family firmware accepts.
// All values are SI units: volts, seconds, hertz.
type Limits struct {
	VerticalScaleMin    float64 `yaml:"vertical_scale_min"`
	VerticalScaleMax    float64 `yaml:"vertical_scale_max"`
	VerticalPositionMax float64 `yaml:"vertical_position_max"`
	ProbeRatioMin       float64 `yaml:"probe_ratio_min"`
	ProbeRatioMax       float64 `yaml:"probe_ratio_max"`
	DeskewMax           float64 `yaml:"deskew_max"`
	HorizontalScaleMin  float64 `yaml:"horizontal_scale_min"`
	HorizontalScaleMax  float64 `yaml:"horizontal_scale_max"`
	HoldoffMin          float64 `yaml:"holdoff_min"`
	HoldoffMax          float64 `yaml:"holdoff_max"`
	AWGFrequencyMin     float64 `yaml:"awg_frequency_min"`
	AWGFrequencyMax     float64 `yaml:"awg_frequency_max"`
	AWGAmplitudeMin     float64 `yaml:"awg_amplitude_min"`
	AWGAmplitudeMax     float64 `yaml:"awg_amplitude_max"`
	AWGOffsetMax        float64 `yaml:"awg_offset_max"`
	SpectrumFreqMax     float64 `yaml:"spectrum_frequency_max"`
	RecordLengths       []int   `yaml:"record_lengths"`
}

// RecordLengthOK reports whether n is one of the family's selectable
// record lengths.
func (l Limits) RecordLengthOK(n int) bool {
	for _, v := range l.RecordLengths {
		if v == n {
			return true
		}
	}
	return false
}

// Timing holds the per-family timing constants. Values are integer
// milliseconds so they round-trip through YAML cleanly.
type Timing struct {
	// CommandGapMS is the minimum pause between two commands on the
	// wire. Zero means no enforced gap.
	CommandGapMS int `yaml:"command_gap_ms"`

	// CommandTimeoutMS bounds one command round trip.
	CommandTimeoutMS int `yaml:"command_timeout_ms"`

	// ConnectTimeoutMS bounds connection establishment.
	ConnectTimeoutMS int `yaml:"connect_timeout_ms"`

	// AcquirePollMS is the acquisition-state poll interval.
	AcquirePollMS int `yaml:"acquire_poll_ms"`
}

// CommandGap returns the inter-command gap as a duration.
func (t Timing) CommandGap() time.Duration {
	return time.Duration(t.CommandGapMS) * time.Millisecond
}

// CommandTimeout returns the command round-trip window as a duration.
func (t Timing) CommandTimeout() time.Duration {
	return time.Duration(t.CommandTimeoutMS) * time.Millisecond
}

// ConnectTimeout returns the connect window as a duration.
func (t Timing) ConnectTimeout() time.Duration {
	return time.Duration(t.ConnectTimeoutMS) * time.Millisecond
}

// AcquirePoll returns the acquisition poll interval as a duration.
func (t Timing) AcquirePoll() time.Duration {
	return time.Duration(t.AcquirePollMS) * time.Millisecond
}

// applyDefaults fills unset windows. The command gap is left alone
// because zero is a meaningful value there.
func (t *Timing) applyDefaults() {
	if t.CommandTimeoutMS == 0 {
		t.CommandTimeoutMS = 5000
	}
	if t.ConnectTimeoutMS == 0 {
		t.ConnectTimeoutMS = 5000
	}
	if t.AcquirePollMS == 0 {
		t.AcquirePollMS = 100
	}
}

// HasPower reports whether the family carries the internal power supply.
func (p *Profile) HasPower() bool {
	return p.PowerOutputs > 0
}

// ValidChannel reports whether ch is a legal analog channel index.
func (p *Profile) ValidChannel(ch int) bool {
	return ch >= 1 && ch <= p.Channels
}

// ValidAWGChannel reports whether n is a legal generator channel index.
func (p *Profile) ValidAWGChannel(n int) bool {
	return n >= 1 && n <= p.AWGChannels
}

// ValidPowerOutput reports whether n is a legal supply output index.
func (p *Profile) ValidPowerOutput(n int) bool {
	return n >= 1 && n <= p.PowerOutputs
}

// ValidSpectrumInstance reports whether id is a legal analyzer instance.
func (p *Profile) ValidSpectrumInstance(id int) bool {
	return id >= 1 && id <= p.SpectrumInstances
}

// SupportsBus reports whether the family decodes the named protocol.
// Matching is case-insensitive.
func (p *Profile) SupportsBus(name string) bool {
	for _, t := range p.BusTypes {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}

// Validate checks the profile for internal consistency.
func (p *Profile) Validate() error {
	if p.Family == "" {
		return fmt.Errorf("profile has no family name")
	}
	if p.Channels < 1 {
		return fmt.Errorf("profile %s: channel count %d out of range", p.Family, p.Channels)
	}
	if p.AWGChannels < 0 || p.PowerOutputs < 0 || p.SpectrumInstances < 0 {
		return fmt.Errorf("profile %s: negative module count", p.Family)
	}
	if p.VocabVersion != "" {
		if _, err := version.Parse(p.VocabVersion); err != nil {
			return fmt.Errorf("profile %s: %w", p.Family, err)
		}
	}
	if p.Timing.CommandGapMS < 0 {
		return fmt.Errorf("profile %s: negative command gap", p.Family)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]*Profile)
)

// Load returns the built-in profile for a family (e.g. "bw2000p"). The
// returned profile is the caller's copy; mutating it does not affect
// later loads.
func Load(family string) (*Profile, error) {
	cacheMu.RLock()
	if p, ok := cache[family]; ok {
		cacheMu.RUnlock()
		return p.clone(), nil
	}
	cacheMu.RUnlock()

	data, err := profileFS.ReadFile("profiles/" + family + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("profile family %q not found: %w", family, err)
	}

	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing profile %q: %w", family, err)
	}

	cacheMu.Lock()
	cache[family] = p
	cacheMu.Unlock()

	return p.clone(), nil
}

// LoadFile reads a profile from a YAML file outside the built-in set.
// Unset timing windows take their defaults; an omitted command gap
// stays zero.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile %s: %w", path, err)
	}
	p, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}

// Families returns the family names of all built-in profiles, sorted.
func Families() ([]string, error) {
	entries, err := profileFS.ReadDir("profiles")
	if err != nil {
		return nil, fmt.Errorf("reading profiles directory: %w", err)
	}

	var families []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			families = append(families, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(families)
	return families, nil
}

// ForModel returns the built-in profile matching a model designation
// such as "BW-2204P", with the channel count taken from the model
// number. Models ending in P belong to the full-featured family;
// everything else maps to the essential family.
func ForModel(model string) (*Profile, error) {
	m := strings.ToUpper(strings.TrimSpace(model))
	family := "bw2000e"
	if strings.HasSuffix(m, "P") {
		family = "bw2000p"
	}
	p, err := Load(family)
	if err != nil {
		return nil, err
	}
	if n := modelChannels(m); n > 0 {
		p.Channels = n
	}
	return p, nil
}

// modelChannels extracts the channel count encoded as the last digit of
// the model number, 0 if the model carries none.
func modelChannels(model string) int {
	for i := len(model) - 1; i >= 0; i-- {
		if model[i] >= '0' && model[i] <= '9' {
			return int(model[i] - '0')
		}
	}
	return 0
}

func parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	p.Timing.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) clone() *Profile {
	cp := *p
	cp.BusTypes = append([]string(nil), p.BusTypes...)
	cp.Limits.RecordLengths = append([]int(nil), p.Limits.RecordLengths...)
	return &cp
}
