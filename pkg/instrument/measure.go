package instrument

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// voltMeasurements maps amplitude measurement names to their
// mnemonics.
var voltMeasurements = map[string]string{
	"amplitude": "AMPlitude",
	"mean":      "MEAN",
	"cyclemean": "CMEan",
	"high":      "HIGH",
	"low":       "LOW",
	"max":       "MAXimum",
	"min":       "MINImum",
	"vpp":       "PK2pk",
	"rms":       "RMS",
	"cyclerms":  "CRMS",
	"area":      "AREa",
	"cyclearea": "CARea",
}

// timeMeasurements maps timing measurement names to their mnemonics.
var timeMeasurements = map[string]string{
	"falltime":          "FALL",
	"fallovershoot":     "FOVShoot",
	"fallpreshoot":      "FPReshoot",
	"frequency":         "FREQuency",
	"-width":            "NWIDth",
	"+width":            "PWIDth",
	"+duty":             "PDUTy",
	"period":            "PERiod",
	"risetime":          "RISe",
	"riseovershoot":     "ROVShoot",
	"risepreshoot":      "RPReshoot",
	"+pulse":            "PPULSE",
	"-pulse":            "NPULSE",
	"+edge":             "PEDGE",
	"-edge":             "NEDGE",
	"flickindexpercent": "PFLIcker",
	"flickindex":        "FLIcker",
}

// delayMeasurements maps two-channel delay measurement names to their
// mnemonics. The three letters pick first or last edge on the
// reference, then the edge polarities of both channels.
var delayMeasurements = map[string]string{
	"frr":   "FRRDelay",
	"frf":   "FRFDelay",
	"ffr":   "FFRDelay",
	"fff":   "FFFDelay",
	"lrr":   "LRRDelay",
	"lrf":   "LRFDelay",
	"lfr":   "LFRDelay",
	"lff":   "LFFDelay",
	"phase": "PHAse",
}

func lookupMeasurement(name string) (string, bool) {
	key := strings.ToLower(name)
	if mn, ok := voltMeasurements[key]; ok {
		return mn, true
	}
	mn, ok := timeMeasurements[key]
	return mn, ok
}

// Measurements lists the per-channel measurement names, sorted.
func Measurements() []string {
	names := make([]string, 0, len(voltMeasurements)+len(timeMeasurements))
	for name := range voltMeasurements {
		names = append(names, name)
	}
	for name := range timeMeasurements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DelayMeasurements lists the two-channel delay measurement names,
// sorted.
func DelayMeasurements() []string {
	names := make([]string, 0, len(delayMeasurements))
	for name := range delayMeasurements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Measure reads the automatic measurement engine.
type Measure struct {
	scope *Scope
}

// Value reads one automatic measurement from a channel, "vpp" or
// "frequency" for example. Measurements lists the accepted names.
// Fails while an acquisition is in flight.
func (m *Measure) Value(ctx context.Context, ch int, name string) (float64, error) {
	if err := m.scope.Sync.Guard(); err != nil {
		return 0, err
	}
	if !m.scope.prof.ValidChannel(ch) {
		return 0, fmt.Errorf("channel %d outside 1..%d: %w",
			ch, m.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	mn, ok := lookupMeasurement(name)
	if !ok {
		return 0, fmt.Errorf("measurement %q: %w", name, scpi.ErrInvalidParameter)
	}
	resp, err := m.scope.sess.Send(ctx, scpi.Query(scpi.ModMeasure, "value", scpi.ChannelSource(ch), mn))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}

// Delay reads one two-channel delay measurement, "frr" or "phase" for
// example. DelayMeasurements lists the accepted names. Fails while an
// acquisition is in flight.
func (m *Measure) Delay(ctx context.Context, ch1, ch2 int, name string) (float64, error) {
	if err := m.scope.Sync.Guard(); err != nil {
		return 0, err
	}
	for _, ch := range []int{ch1, ch2} {
		if !m.scope.prof.ValidChannel(ch) {
			return 0, fmt.Errorf("channel %d outside 1..%d: %w",
				ch, m.scope.prof.Channels, scpi.ErrInvalidParameter)
		}
	}
	mn, ok := delayMeasurements[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("delay measurement %q: %w", name, scpi.ErrInvalidParameter)
	}
	resp, err := m.scope.sess.Send(ctx, scpi.Query(scpi.ModMeasure, "delay",
		scpi.ChannelSource(ch1), scpi.ChannelSource(ch2), mn))
	if err != nil {
		return 0, err
	}
	return resp.Float()
}
