package profile

import (
	"sort"
	"strings"
)

// BenchProfile carries the line parameters for an external bench
// device class.
type BenchProfile struct {
	Class  string
	Baud   int
	Timing Timing
}

var benchTiming = Timing{
	CommandGapMS:     100,
	CommandTimeoutMS: 5000,
	ConnectTimeoutMS: 5000,
	AcquirePollMS:    100,
}

var benchProfiles = map[string]BenchProfile{
	"PSW": {Class: "PSW", Baud: 115200, Timing: benchTiming},
	"PFR": {Class: "PFR", Baud: 115200, Timing: benchTiming},
	"PPX": {Class: "PPX", Baud: 115200, Timing: benchTiming},
	"PEL": {Class: "PEL", Baud: 115200, Timing: benchTiming},
	"GDM": {Class: "GDM", Baud: 9600, Timing: benchTiming},
}

// BenchByClass returns the profile for a bench device class name.
// Matching is case-insensitive.
func BenchByClass(class string) (BenchProfile, bool) {
	p, ok := benchProfiles[strings.ToUpper(class)]
	return p, ok
}

// BenchClasses returns the known bench device class names, sorted.
func BenchClasses() []string {
	classes := make([]string, 0, len(benchProfiles))
	for c := range benchProfiles {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}
