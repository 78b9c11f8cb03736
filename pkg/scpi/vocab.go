package scpi

import (
	"fmt"
	"strconv"

	"github.com/benchwire-project/benchwire-go/pkg/version"
)

// Module names in the default vocabulary.
const (
	ModSystem   = "system"
	ModChannel  = "channel"
	ModTimebase = "timebase"
	ModTrigger  = "trigger"
	ModAcquire  = "acquire"
	ModWaveform = "waveform"
	ModAWG      = "awg"
	ModDMM      = "dmm"
	ModPower    = "power"
	ModBus      = "bus"
	ModSpectrum = "spectrum"
	ModMeasure  = "measure"
)

// Key identifies a vocabulary entry by module and action.
type Key struct {
	Module string
	Action string
}

// Entry holds the wire templates for one command. Set and Query are
// fmt templates with one %v verb per argument; an empty template means
// the form does not exist.
type Entry struct {
	Set   string
	Query string

	// SetArgs and QueryArgs are the argument counts of each form.
	SetArgs   int
	QueryArgs int

	// Parts is the number of response frames the query form answers
	// with; zero means one. Memory transfers answer with a header line
	// followed by a binary block.
	Parts int
}

// Vocabulary maps typed commands to their wire text. The vocabulary is
// versioned: adding entries bumps the minor version, so modules grow
// the command set without touching the session or transport layers.
type Vocabulary struct {
	Version version.Version

	entries map[Key]Entry
}

// New builds a vocabulary from an entry table.
func New(ver version.Version, entries map[Key]Entry) *Vocabulary {
	return &Vocabulary{Version: ver, entries: entries}
}

// Extend returns a new vocabulary with the added entries and a bumped
// minor version. Existing entries are not replaced.
func (v *Vocabulary) Extend(entries map[Key]Entry) *Vocabulary {
	merged := make(map[Key]Entry, len(v.entries)+len(entries))
	for k, e := range v.entries {
		merged[k] = e
	}
	for k, e := range entries {
		if _, exists := merged[k]; !exists {
			merged[k] = e
		}
	}
	next := version.Version{Major: v.Version.Major, Minor: v.Version.Minor + 1}
	return &Vocabulary{Version: next, entries: merged}
}

// Lookup returns the entry for a module/action pair.
func (v *Vocabulary) Lookup(module, action string) (Entry, bool) {
	e, ok := v.entries[Key{Module: module, Action: action}]
	return e, ok
}

// Supports reports whether the vocabulary can encode cmd.
func (v *Vocabulary) Supports(cmd Command) bool {
	e, ok := v.Lookup(cmd.Module, cmd.Action)
	if !ok {
		return false
	}
	if cmd.Query {
		return e.Query != ""
	}
	return e.Set != ""
}

// ResponseParts returns the number of response frames cmd expects:
// zero for set commands, one for ordinary queries, two for memory
// transfers.
func (v *Vocabulary) ResponseParts(cmd Command) int {
	if !cmd.Query {
		return 0
	}
	e, ok := v.Lookup(cmd.Module, cmd.Action)
	if !ok || e.Parts == 0 {
		return 1
	}
	return e.Parts
}

// Encode renders cmd as newline-terminated wire bytes. Encoding is
// deterministic and never fails for a command the vocabulary knows
// with the declared argument count.
func (v *Vocabulary) Encode(cmd Command) ([]byte, error) {
	e, ok := v.Lookup(cmd.Module, cmd.Action)
	if !ok {
		return nil, fmt.Errorf("%s: %w", cmd.Name(), ErrUnknownCommand)
	}

	tmpl, want := e.Set, e.SetArgs
	if cmd.Query {
		tmpl, want = e.Query, e.QueryArgs
	}
	if tmpl == "" {
		return nil, fmt.Errorf("%s: form not defined: %w", cmd.Name(), ErrUnknownCommand)
	}
	if len(cmd.Args) != want {
		return nil, fmt.Errorf("%s: want %d args, got %d: %w",
			cmd.Name(), want, len(cmd.Args), ErrInvalidParameter)
	}

	args := make([]any, len(cmd.Args))
	for i, a := range cmd.Args {
		args[i] = renderArg(a)
	}
	return []byte(fmt.Sprintf(tmpl, args...) + "\n"), nil
}

// renderArg normalizes an argument to its wire text. Booleans render
// as ON/OFF, floats in minimal round-trippable form, enumerations via
// their wire mnemonic.
func renderArg(a any) string {
	switch v := a.(type) {
	case bool:
		if v {
			return "ON"
		}
		return "OFF"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case int:
		return strconv.Itoa(v)
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Default returns the vocabulary for the oscilloscope family's
// firmware command set.
func Default() *Vocabulary {
	return New(version.Version{Major: 1, Minor: 0}, defaultEntries())
}

func defaultEntries() map[Key]Entry {
	return map[Key]Entry{
		// System and run control.
		{ModSystem, "run"}:      {Set: ":RUN", Query: ":RUN?"},
		{ModSystem, "stop"}:     {Set: ":STOP"},
		{ModSystem, "single"}:   {Set: ":SINGle"},
		{ModSystem, "force"}:    {Set: ":FORCe"},
		{ModSystem, "autoset"}:  {Set: "AUTOS"},
		{ModSystem, "reset"}:    {Set: "*RST"},
		{ModSystem, "identify"}: {Query: "*IDN?"},
		{ModSystem, "opc"}:      {Query: "*OPC?"},
		{ModSystem, "error"}:    {Query: "SYST:ERR?"},
		{ModSystem, "header"}:   {Set: ":header %v", SetArgs: 1, Query: ":header?"},

		// Channel vertical controls.
		{ModChannel, "display"}:    {Set: ":CHAN%v:DISP %v", SetArgs: 2, Query: ":CHAN%v:DISP?", QueryArgs: 1},
		{ModChannel, "scale"}:      {Set: ":CHAN%v:SCAL %v", SetArgs: 2, Query: ":CHAN%v:SCAL?", QueryArgs: 1},
		{ModChannel, "position"}:   {Set: ":CHAN%v:POS %v", SetArgs: 2, Query: ":CHAN%v:POS?", QueryArgs: 1},
		{ModChannel, "coupling"}:   {Set: ":CHAN%v:COUP %v", SetArgs: 2, Query: ":CHAN%v:COUP?", QueryArgs: 1},
		{ModChannel, "proberatio"}: {Set: ":CHAN%v:PROB:RAT %v", SetArgs: 2, Query: ":CHAN%v:PROB:RAT?", QueryArgs: 1},
		{ModChannel, "probetype"}:  {Set: ":CHAN%v:PROB:TYP %v", SetArgs: 2, Query: ":CHAN%v:PROB:TYP?", QueryArgs: 1},
		{ModChannel, "bwlimit"}:    {Set: ":CHANnel%v:BWLimit %v", SetArgs: 2, Query: ":CHANnel%v:BWLimit?", QueryArgs: 1},
		{ModChannel, "deskew"}:     {Set: ":CHANnel%v:DESKew %v", SetArgs: 2, Query: ":CHANnel%v:DESKew?", QueryArgs: 1},
		{ModChannel, "invert"}:     {Set: ":CHANnel%v:INVert %v", SetArgs: 2, Query: ":CHANnel%v:INVert?", QueryArgs: 1},
		{ModChannel, "impedance"}:  {Set: ":CHANnel%v:IMPedance %v", SetArgs: 2, Query: ":CHANnel%v:IMPedance?", QueryArgs: 1},
		{ModChannel, "expand"}:     {Set: ":CHANnel%v:EXPand %v", SetArgs: 2, Query: ":CHANnel%v:EXPand?", QueryArgs: 1},

		// Horizontal controls.
		{ModTimebase, "scale"}:       {Set: ":TIM:SCAL %v", SetArgs: 1, Query: ":TIM:SCAL?"},
		{ModTimebase, "position"}:    {Set: ":TIM:POS %v", SetArgs: 1, Query: ":TIM:POS?"},
		{ModTimebase, "windowscale"}: {Set: ":TIM:WIND:SCAL %v", SetArgs: 1, Query: ":TIM:WIND:SCAL?"},
		{ModTimebase, "mode"}:        {Set: ":TIMebase:MODe %v", SetArgs: 1, Query: ":TIMebase:MODe?"},

		// Trigger engine.
		{ModTrigger, "type"}:        {Set: ":TRIG:TYP %v", SetArgs: 1, Query: ":TRIG:TYP?"},
		{ModTrigger, "source"}:      {Set: ":TRIG:SOUR %v", SetArgs: 1, Query: ":TRIG:SOUR?"},
		{ModTrigger, "mode"}:        {Set: ":TRIG:MOD %v", SetArgs: 1, Query: ":TRIG:MOD?"},
		{ModTrigger, "coupling"}:    {Set: ":TRIG:COUP %v", SetArgs: 1, Query: ":TRIG:COUP?"},
		{ModTrigger, "level"}:       {Set: ":TRIG:LEV %v", SetArgs: 1, Query: ":TRIG:LEV?"},
		{ModTrigger, "holdoff"}:     {Set: ":TRIGger:HOLDoff %v", SetArgs: 1, Query: ":TRIGger:HOLDoff?"},
		{ModTrigger, "noisereject"}: {Set: ":TRIGger:NREJ %v", SetArgs: 1, Query: ":TRIGger:NREJ?"},
		{ModTrigger, "extratio"}:    {Set: ":TRIG:EXTER:PROB:RAT %v", SetArgs: 1, Query: ":TRIG:EXTER:PROB:RAT?"},
		{ModTrigger, "frequency"}:   {Query: ":TRIGger:FREQuency?"},

		// Acquisition front end.
		{ModAcquire, "mode"}:         {Set: ":ACQ:MOD %v", SetArgs: 1, Query: ":ACQ:MOD?"},
		{ModAcquire, "average"}:      {Set: ":ACQuire:AVERage %v", SetArgs: 1, Query: ":ACQuire:AVERage?"},
		{ModAcquire, "recordlength"}: {Set: ":ACQ:RECO %v", SetArgs: 1, Query: ":ACQ:RECO?"},
		{ModAcquire, "samplerate"}:   {Query: ":ACQuire:SAMPlerate?"},
		{ModAcquire, "state"}:        {Query: ":ACQuire%v:STATe?", QueryArgs: 1},

		// Waveform memory transfer: header line then binary block.
		{ModWaveform, "memory"}: {Query: ":acq%v:mem?", QueryArgs: 1, Parts: 2},

		// Arbitrary waveform generator.
		{ModAWG, "waveform"}:      {Set: ":AWG%v:FUNCtion %v", SetArgs: 2, Query: ":AWG%v:FUNCtion?", QueryArgs: 1},
		{ModAWG, "frequency"}:     {Set: ":AWG%v:FREQuency %v", SetArgs: 2, Query: ":AWG%v:FREQuency?", QueryArgs: 1},
		{ModAWG, "amplitude"}:     {Set: ":AWG%v:AMPlitude %v", SetArgs: 2, Query: ":AWG%v:AMPlitude?", QueryArgs: 1},
		{ModAWG, "offset"}:        {Set: ":AWG%v:OFFSet %v", SetArgs: 2, Query: ":AWG%v:OFFSet?", QueryArgs: 1},
		{ModAWG, "phase"}:         {Set: ":AWG%v:PHAse %v", SetArgs: 2, Query: ":AWG%v:PHAse?", QueryArgs: 1},
		{ModAWG, "output"}:        {Set: ":AWG%v:OUTPut:STATe %v", SetArgs: 2, Query: ":AWG%v:OUTPut:STATe?", QueryArgs: 1},
		{ModAWG, "loadimpedance"}: {Set: ":AWG%v:OUTPut:LOAd:IMPEDance %v", SetArgs: 2, Query: ":AWG%v:OUTPut:LOAd:IMPEDance?", QueryArgs: 1},
		{ModAWG, "arbload"}:       {Set: ":AWG%v:ARBitrary:LOAd:WAVEform %v", SetArgs: 2},

		// Multimeter.
		{ModDMM, "state"}:     {Set: ":DMM:STATE %v", SetArgs: 1, Query: ":DMM:STATE?"},
		{ModDMM, "mode"}:      {Set: ":DMM:MODe %v", SetArgs: 1, Query: ":DMM:MODe?"},
		{ModDMM, "range"}:     {Set: ":DMM:MODe:RANGe %v", SetArgs: 1, Query: ":DMM:MODe:RANGe?"},
		{ModDMM, "value"}:     {Query: ":DMM:VALue?"},
		{ModDMM, "temptype"}:  {Set: ":DMM:TEMPerature:TYPe %v", SetArgs: 1, Query: ":DMM:TEMPerature:TYPe?"},
		{ModDMM, "tempunits"}: {Set: ":DMM:TEMPerature:UNITs %v", SetArgs: 1, Query: ":DMM:TEMPerature:UNITs?"},
		{ModDMM, "minmax"}:    {Set: ":DMM:MMIN %v", SetArgs: 1},
		{ModDMM, "hold"}:      {Set: ":DMM:HOLD %v", SetArgs: 1, Query: ":DMM:HOLD?"},

		// Internal power supply outputs.
		{ModPower, "output"}:      {Set: ":POWERSupply:OUTPut%v %v", SetArgs: 2, Query: ":POWERSupply:OUTPut%v?", QueryArgs: 1},
		{ModPower, "voltage"}:     {Set: ":POWERSupply:OUTPut%v:VOLTage %v", SetArgs: 2, Query: ":POWERSupply:OUTPut%v:VOLTage?", QueryArgs: 1},
		{ModPower, "ocp"}:         {Query: ":POWERSupply:OUTPut%v:OCP?", QueryArgs: 1},
		{ModPower, "reconfigure"}: {Set: ":POWERSupply:OUTPut%v:RECONFigure ON", SetArgs: 1},

		// Serial bus decode.
		{ModBus, "supported"}:       {Query: ":BUS1?"},
		{ModBus, "state"}:           {Set: ":BUS1:STATE %v", SetArgs: 1, Query: ":BUS1:STATE?"},
		{ModBus, "type"}:            {Set: ":BUS1:TYPe %v", SetArgs: 1, Query: ":BUS1:TYPe?"},
		{ModBus, "input"}:           {Set: ":BUS1:INPut %v", SetArgs: 1, Query: ":BUS1:INPut?"},
		{ModBus, "format"}:          {Set: ":BUS1:DISplay:FORMAt %v", SetArgs: 1},
		{ModBus, "uart.bitrate"}:    {Set: ":BUS1:UART:BITRate %v", SetArgs: 1},
		{ModBus, "uart.databits"}:   {Set: ":BUS1:UART:DATABits %v", SetArgs: 1},
		{ModBus, "uart.parity"}:     {Set: ":BUS1:UART:PARIty %v", SetArgs: 1},
		{ModBus, "uart.packet"}:     {Set: ":BUS1:UART:PACKEt %v", SetArgs: 1},
		{ModBus, "uart.eof"}:        {Set: ":BUS1:UART:EOFPAcket %v", SetArgs: 1},
		{ModBus, "uart.tx"}:         {Set: ":BUS1:UART:TX:SOURce %v", SetArgs: 1},
		{ModBus, "uart.rx"}:         {Set: ":BUS1:UART:RX:SOURce %v", SetArgs: 1},
		{ModBus, "i2c.rw"}:          {Set: ":BUS1:I2C:ADDRess:RWINClude %v", SetArgs: 1},
		{ModBus, "i2c.sclk"}:        {Set: ":BUS1:I2C:SCLK:SOURce %v", SetArgs: 1},
		{ModBus, "i2c.sda"}:         {Set: ":BUS1:I2C:SDA:SOURce %v", SetArgs: 1},
		{ModBus, "spi.sclkpol"}:     {Set: ":BUS1:SPI:SCLK:POLARity %v", SetArgs: 1},
		{ModBus, "spi.sspol"}:       {Set: ":BUS1:SPI:SS:POLARity %v", SetArgs: 1},
		{ModBus, "spi.wordsize"}:    {Set: ":BUS1:SPI:WORDSize %v", SetArgs: 1},
		{ModBus, "spi.bitorder"}:    {Set: ":BUS1:SPI:BITORder %v", SetArgs: 1},
		{ModBus, "spi.sclk"}:        {Set: ":BUS1:SPI:SCLK:SOURce %v", SetArgs: 1},
		{ModBus, "spi.ss"}:          {Set: ":BUS1:SPI:SS:SOURce %v", SetArgs: 1},
		{ModBus, "spi.mosi"}:        {Set: ":BUS1:SPI:MOSI:SOURce %v", SetArgs: 1},
		{ModBus, "spi.miso"}:        {Set: ":BUS1:SPI:MISO:SOURce %v", SetArgs: 1},
		{ModBus, "can.source"}:      {Set: ":BUS1:CAN:SOURce %v", SetArgs: 1},
		{ModBus, "can.probe"}:       {Set: ":BUS1:CAN:PROBe %v", SetArgs: 1},
		{ModBus, "can.bitrate"}:     {Set: ":BUS1:CAN:BITRate %v", SetArgs: 1},
		{ModBus, "can.samplepoint"}: {Query: ":BUS1:CAN:SAMPLEpoint?"},
		{ModBus, "lin.bitrate"}:     {Set: ":BUS1:LIN:BITRate %v", SetArgs: 1},
		{ModBus, "lin.idformat"}:    {Set: ":BUS1:LIN:IDFORmat %v", SetArgs: 1},
		{ModBus, "lin.polarity"}:    {Set: ":BUS1:LIN:POLARity %v", SetArgs: 1},
		{ModBus, "lin.source"}:      {Set: ":BUS1:LIN:SOURce %v", SetArgs: 1},
		{ModBus, "lin.standard"}:    {Set: ":BUS1:LIN:STANDard %v", SetArgs: 1},
		{ModBus, "lin.samplepoint"}: {Query: ":BUS1:LIN:SAMPLEpoint?"},

		// Spectrum analyzer instances; the first argument is the
		// instance prefix, empty for the primary analyzer.
		{ModSpectrum, "mode"}:         {Set: ":SA:STATE %v", SetArgs: 1, Query: ":SA:STATE?"},
		{ModSpectrum, "input"}:        {Set: ":SA%v:INPut %v", SetArgs: 2, Query: ":SA%v:INPut?", QueryArgs: 1},
		{ModSpectrum, "source"}:       {Set: ":SA%v:SOURce CH%v", SetArgs: 2, Query: ":SA%v:SOURce?", QueryArgs: 1},
		{ModSpectrum, "frequency"}:    {Set: ":SA%v:FREQuency %v", SetArgs: 2, Query: ":SA%v:FREQuency?", QueryArgs: 1},
		{ModSpectrum, "span"}:         {Set: ":SA%v:SPAN %v", SetArgs: 2, Query: ":SA%v:SPAN?", QueryArgs: 1},
		{ModSpectrum, "start"}:        {Set: ":SA%v:START %v", SetArgs: 2, Query: ":SA%v:START?", QueryArgs: 1},
		{ModSpectrum, "stop"}:         {Set: ":SA%v:STOP %v", SetArgs: 2, Query: ":SA%v:STOP?", QueryArgs: 1},
		{ModSpectrum, "rbw"}:          {Set: ":SA%v:RBW %v", SetArgs: 2, Query: ":SA%v:RBW?", QueryArgs: 1},
		{ModSpectrum, "rbwmode"}:      {Query: ":SA%v:RBW:MODE?", QueryArgs: 1},
		{ModSpectrum, "spanratio"}:    {Set: ":SA%v:SPANRbwratio %v", SetArgs: 2},
		{ModSpectrum, "scale"}:        {Set: ":SA%v:UNITS %v;:SA%v:SCALE %v", SetArgs: 4},
		{ModSpectrum, "position"}:     {Set: ":SA%v:POSITION %v", SetArgs: 2},
		{ModSpectrum, "window"}:       {Set: ":SA%v:WINDOW %v", SetArgs: 2},
		{ModSpectrum, "tracesource"}:  {Set: ":SA%v:MEMory:SOURce %v", SetArgs: 2, Query: ":SA%v:MEMory:SOURce?", QueryArgs: 1},
		{ModSpectrum, "select"}:       {Set: ":SELect:%v %v", SetArgs: 2, Query: ":SELect:%v?", QueryArgs: 1},
		{ModSpectrum, "instancesel"}:  {Set: ":SA%v:%v %v", SetArgs: 3, Query: ":SA%v:%v?", QueryArgs: 2},
		{ModSpectrum, "memory"}:       {Query: ":SA%v:MEM?", QueryArgs: 1, Parts: 2},

		// Automatic measurements: source select and query share one
		// exchange, as the firmware expects.
		{ModMeasure, "value"}: {Query: ":MEASure:SOURce1 %v;:MEASure:%v?", QueryArgs: 2},
		{ModMeasure, "delay"}: {Query: ":MEASure:SOURce1 %v;:MEASure:SOURce2 %v;:MEASure:%v?", QueryArgs: 3},
	}
}
