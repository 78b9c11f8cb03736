package bench

import (
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/version"
)

// Module names in the bench vocabularies.
const (
	modSupply = "supply"
	modLoad   = "load"
	modMeter  = "meter"
)

// SupplyVocabulary returns the command vocabulary of the PSW, PFR and
// PPX supply families. The setpoint commands carry no output index on
// the wire; these are single-output units.
func SupplyVocabulary() *scpi.Vocabulary {
	return scpi.New(version.Version{Major: 1, Minor: 0}, map[scpi.Key]scpi.Entry{
		{Module: modSupply, Action: "identify"}: {Query: "*IDN?"},
		{Module: modSupply, Action: "opc"}:      {Query: "*OPC?"},

		{Module: modSupply, Action: "voltage"}:    {Set: "VOLT %v", SetArgs: 1, Query: "VOLT?"},
		{Module: modSupply, Action: "voltagemax"}: {Query: "VOLT? MAX"},
		{Module: modSupply, Action: "voltagemin"}: {Query: "VOLT? MIN"},
		{Module: modSupply, Action: "current"}:    {Set: "CURR %v", SetArgs: 1, Query: "CURR?"},
		{Module: modSupply, Action: "currentmax"}: {Query: "CURR? MAX"},
		{Module: modSupply, Action: "currentmin"}: {Query: "CURR? MIN"},

		{Module: modSupply, Action: "output"}: {Set: ":OUTP %v", SetArgs: 1, Query: "OUTP?"},
		{Module: modSupply, Action: "mode"}:   {Set: ":OUTPut:MODE %v", SetArgs: 1, Query: "OUTPut:MODE?"},

		{Module: modSupply, Action: "measurevoltage"}: {Query: "MEAS:VOLT?"},
		{Module: modSupply, Action: "measurecurrent"}: {Query: "MEAS:CURR?"},
		{Module: modSupply, Action: "measurepower"}:   {Query: "MEAS:POW?"},

		{Module: modSupply, Action: "ovp"}:             {Set: ":VOLT:PROT %v", SetArgs: 1, Query: ":VOLT:PROT?"},
		{Module: modSupply, Action: "ocp"}:             {Set: ":CURR:PROT %v", SetArgs: 1, Query: ":CURR:PROT?"},
		{Module: modSupply, Action: "ocpstate"}:        {Set: ":CURR:PROT:STAT %v", SetArgs: 1, Query: ":CURR:PROT:STAT?"},
		{Module: modSupply, Action: "tripped"}:         {Query: ":OUTP:PROT:TRIP?"},
		{Module: modSupply, Action: "clearprotection"}: {Set: ":OUTP:PROT:CLE"},
	})
}

// LoadVocabulary returns the command vocabulary of the PEL electronic
// load family. The static level commands address the A value of each
// operating mode.
func LoadVocabulary() *scpi.Vocabulary {
	return scpi.New(version.Version{Major: 1, Minor: 0}, map[scpi.Key]scpi.Entry{
		{Module: modLoad, Action: "identify"}: {Query: "*IDN?"},
		{Module: modLoad, Action: "opc"}:      {Query: "*OPC?"},
		{Module: modLoad, Action: "error"}:    {Query: ":SYST:ERR?"},

		{Module: modLoad, Action: "input"}: {Set: ":INP %v", SetArgs: 1, Query: ":INP?"},
		{Module: modLoad, Action: "mode"}:  {Set: ":MODE %v", SetArgs: 1, Query: ":MODE?"},

		{Module: modLoad, Action: "levelcc"}: {Set: ":CURR:VA %v", SetArgs: 1, Query: ":CURR:VA?"},
		{Module: modLoad, Action: "levelcv"}: {Set: ":VOLT:VA %v", SetArgs: 1, Query: ":VOLT:VA?"},
		{Module: modLoad, Action: "levelcr"}: {Set: ":RES:VA %v", SetArgs: 1, Query: ":RES:VA?"},
		{Module: modLoad, Action: "levelcp"}: {Set: ":POW:VA %v", SetArgs: 1, Query: ":POW:VA?"},

		{Module: modLoad, Action: "currentmax"}: {Query: "CURR? MAX"},
		{Module: modLoad, Action: "currentmin"}: {Query: "CURR? MIN"},
		{Module: modLoad, Action: "voltagemax"}: {Query: "VOLT? MAX"},
		{Module: modLoad, Action: "voltagemin"}: {Query: "VOLT? MIN"},

		{Module: modLoad, Action: "measurevoltage"}: {Query: ":MEAS:VOLT?"},
		{Module: modLoad, Action: "measurecurrent"}: {Query: ":MEAS:CURR?"},
		{Module: modLoad, Action: "measurepower"}:   {Query: ":MEAS:POWer?"},
	})
}

// MeterVocabulary returns the command vocabulary of the GDM bench
// multimeter family. Function paths (VOLTage:DC, RESistance, ...)
// render through the MeterFunction argument.
func MeterVocabulary() *scpi.Vocabulary {
	return scpi.New(version.Version{Major: 1, Minor: 0}, map[scpi.Key]scpi.Entry{
		{Module: modMeter, Action: "identify"}: {Query: "*IDN?"},
		{Module: modMeter, Action: "opc"}:      {Query: "*OPC?"},
		{Module: modMeter, Action: "error"}:    {Query: ":SYST:ERR?"},

		{Module: modMeter, Action: "configure"}:      {Set: "CONFigure:%v", SetArgs: 1},
		{Module: modMeter, Action: "configurerange"}: {Set: "CONFigure:%v %v", SetArgs: 2},
		{Module: modMeter, Action: "function"}:       {Query: "CONFigure:FUNCtion?"},
		{Module: modMeter, Action: "range"}:          {Query: "CONFigure:RANGe?"},
		{Module: modMeter, Action: "autorange"}:      {Set: "CONFigure:AUTO %v", SetArgs: 1, Query: "CONFigure:AUTO?"},

		{Module: modMeter, Action: "measure"}: {Query: "MEASure:%v?", QueryArgs: 1},
		{Module: modMeter, Action: "value"}:   {Query: "VAL1?"},
		{Module: modMeter, Action: "value2"}:  {Query: "VAL2?"},

		{Module: modMeter, Action: "abort"}:    {Set: "ABORt"},
		{Module: modMeter, Action: "initiate"}: {Set: "INITiate:IMMediate"},
	})
}
