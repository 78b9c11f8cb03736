package scpi

import "strings"

// Enumerated instrument parameters. String() returns the wire mnemonic
// in SCPI mixed case (capitals mark the short form the instrument also
// accepts); parse helpers match responses against either form,
// case-insensitively.

// shortForm returns the capitalized prefix of a SCPI mnemonic, which
// the instrument uses in query responses.
func shortForm(m string) string {
	for i, r := range m {
		if r >= 'a' && r <= 'z' {
			return m[:i]
		}
	}
	return m
}

// matchMnemonic reports whether a response token matches a mnemonic in
// its long or short form.
func matchMnemonic(s, m string) bool {
	u := strings.ToUpper(strings.TrimSpace(s))
	return u == strings.ToUpper(m) || u == shortForm(m)
}

// Coupling is the vertical input coupling of a channel.
type Coupling uint8

const (
	CouplingDC Coupling = iota
	CouplingAC
	CouplingGND
)

// String returns the wire mnemonic.
func (c Coupling) String() string {
	switch c {
	case CouplingDC:
		return "DC"
	case CouplingAC:
		return "AC"
	case CouplingGND:
		return "GND"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined coupling.
func (c Coupling) IsValid() bool {
	return c <= CouplingGND
}

// ParseCoupling matches a query response to a coupling value.
func ParseCoupling(s string) (Coupling, error) {
	for _, c := range []Coupling{CouplingDC, CouplingAC, CouplingGND} {
		if matchMnemonic(s, c.String()) {
			return c, nil
		}
	}
	return 0, fieldError("coupling", s)
}

// ProbeType is the probe kind attached to a channel input.
type ProbeType uint8

const (
	ProbeVoltage ProbeType = iota
	ProbeCurrent
)

// String returns the wire mnemonic.
func (p ProbeType) String() string {
	switch p {
	case ProbeVoltage:
		return "VOLTage"
	case ProbeCurrent:
		return "CURRent"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined probe type.
func (p ProbeType) IsValid() bool {
	return p <= ProbeCurrent
}

// ParseProbeType matches a query response to a probe type.
func ParseProbeType(s string) (ProbeType, error) {
	for p := ProbeVoltage; p <= ProbeCurrent; p++ {
		if matchMnemonic(s, p.String()) {
			return p, nil
		}
	}
	return 0, fieldError("probe type", s)
}

// ExpandMode selects the reference point for vertical scale expansion.
type ExpandMode uint8

const (
	ExpandGround ExpandMode = iota
	ExpandCenter
)

// String returns the wire mnemonic.
func (e ExpandMode) String() string {
	switch e {
	case ExpandGround:
		return "GND"
	case ExpandCenter:
		return "CENTer"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined expand mode.
func (e ExpandMode) IsValid() bool {
	return e <= ExpandCenter
}

// TriggerType selects the trigger engine.
type TriggerType uint8

const (
	TriggerEdge TriggerType = iota
	TriggerDelay
	TriggerPulse
	TriggerVideo
	TriggerRunt
	TriggerRiseFall
	TriggerBus
	TriggerLogic
	TriggerTimeout
)

// String returns the wire mnemonic.
func (t TriggerType) String() string {
	switch t {
	case TriggerEdge:
		return "EDGe"
	case TriggerDelay:
		return "DELay"
	case TriggerPulse:
		return "PULSe"
	case TriggerVideo:
		return "VIDeo"
	case TriggerRunt:
		return "RUNT"
	case TriggerRiseFall:
		return "RISefall"
	case TriggerBus:
		return "BUS"
	case TriggerLogic:
		return "LOGic"
	case TriggerTimeout:
		return "TIMEout"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined trigger type.
func (t TriggerType) IsValid() bool {
	return t <= TriggerTimeout
}

// ParseTriggerType matches a query response to a trigger type.
func ParseTriggerType(s string) (TriggerType, error) {
	for t := TriggerEdge; t <= TriggerTimeout; t++ {
		if matchMnemonic(s, t.String()) {
			return t, nil
		}
	}
	return 0, fieldError("trigger type", s)
}

// TriggerSource is the signal the trigger engine watches.
type TriggerSource uint8

const (
	TriggerSourceCH1  TriggerSource = 1
	TriggerSourceCH2  TriggerSource = 2
	TriggerSourceCH3  TriggerSource = 3
	TriggerSourceCH4  TriggerSource = 4
	TriggerSourceExt  TriggerSource = 5
	TriggerSourceLine TriggerSource = 6

	// TriggerSourceD0 through D15 follow contiguously.
	TriggerSourceD0 TriggerSource = 10
)

// ChannelSource returns the trigger source for analog channel n (1..4).
func ChannelSource(n int) TriggerSource {
	return TriggerSource(n)
}

// DigitalSource returns the trigger source for digital line n (0..15).
func DigitalSource(n int) TriggerSource {
	return TriggerSourceD0 + TriggerSource(n)
}

// String returns the wire mnemonic.
func (s TriggerSource) String() string {
	switch {
	case s >= TriggerSourceCH1 && s <= TriggerSourceCH4:
		return "CH" + string(rune('0'+s))
	case s == TriggerSourceExt:
		return "EXT"
	case s == TriggerSourceLine:
		return "LINe"
	case s >= TriggerSourceD0 && s <= TriggerSourceD0+15:
		n := int(s - TriggerSourceD0)
		if n < 10 {
			return "D" + string(rune('0'+n))
		}
		return "D1" + string(rune('0'+n-10))
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined trigger source.
func (s TriggerSource) IsValid() bool {
	return (s >= TriggerSourceCH1 && s <= TriggerSourceLine) ||
		(s >= TriggerSourceD0 && s <= TriggerSourceD0+15)
}

// ParseTriggerSource matches a query response to a trigger source.
func ParseTriggerSource(s string) (TriggerSource, error) {
	for src := TriggerSourceCH1; src <= TriggerSourceLine; src++ {
		if matchMnemonic(s, src.String()) {
			return src, nil
		}
	}
	for n := 0; n < 16; n++ {
		if src := DigitalSource(n); matchMnemonic(s, src.String()) {
			return src, nil
		}
	}
	return 0, fieldError("trigger source", s)
}

// TriggerMode selects sweep behavior when no trigger occurs.
type TriggerMode uint8

const (
	TriggerAuto TriggerMode = iota
	TriggerNormal
)

// String returns the wire mnemonic.
func (m TriggerMode) String() string {
	switch m {
	case TriggerAuto:
		return "AUTo"
	case TriggerNormal:
		return "NORMal"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined trigger mode.
func (m TriggerMode) IsValid() bool {
	return m <= TriggerNormal
}

// ParseTriggerMode matches a query response to a trigger mode.
func ParseTriggerMode(s string) (TriggerMode, error) {
	for _, m := range []TriggerMode{TriggerAuto, TriggerNormal} {
		if matchMnemonic(s, m.String()) {
			return m, nil
		}
	}
	return 0, fieldError("trigger mode", s)
}

// TriggerCoupling is the coupling of the trigger pickoff path.
type TriggerCoupling uint8

const (
	TriggerCouplingDC TriggerCoupling = iota
	TriggerCouplingAC
	TriggerCouplingHF
	TriggerCouplingLF
)

// String returns the wire mnemonic.
func (c TriggerCoupling) String() string {
	switch c {
	case TriggerCouplingDC:
		return "DC"
	case TriggerCouplingAC:
		return "AC"
	case TriggerCouplingHF:
		return "HF"
	case TriggerCouplingLF:
		return "LF"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined trigger coupling.
func (c TriggerCoupling) IsValid() bool {
	return c <= TriggerCouplingLF
}

// ParseTriggerCoupling matches a query response to a trigger coupling.
func ParseTriggerCoupling(s string) (TriggerCoupling, error) {
	for c := TriggerCouplingDC; c <= TriggerCouplingLF; c++ {
		if matchMnemonic(s, c.String()) {
			return c, nil
		}
	}
	return 0, fieldError("trigger coupling", s)
}

// AcquisitionMode is the front-end sampling mode.
type AcquisitionMode uint8

const (
	AcquisitionSample AcquisitionMode = iota
	AcquisitionPeakDetect
	AcquisitionAverage
)

// String returns the wire mnemonic.
func (m AcquisitionMode) String() string {
	switch m {
	case AcquisitionSample:
		return "SAMPle"
	case AcquisitionPeakDetect:
		return "PDETect"
	case AcquisitionAverage:
		return "AVERage"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined acquisition mode.
func (m AcquisitionMode) IsValid() bool {
	return m <= AcquisitionAverage
}

// ParseAcquisitionMode matches a query response to a mode.
func ParseAcquisitionMode(s string) (AcquisitionMode, error) {
	modes := []AcquisitionMode{AcquisitionSample, AcquisitionPeakDetect, AcquisitionAverage}
	for _, m := range modes {
		if matchMnemonic(s, m.String()) {
			return m, nil
		}
	}
	return 0, fieldError("acquisition mode", s)
}

// TimebaseMode is the horizontal display mode.
type TimebaseMode uint8

const (
	TimebaseMain TimebaseMode = iota
	TimebaseWindow
	TimebaseXY
)

// String returns the wire mnemonic.
func (m TimebaseMode) String() string {
	switch m {
	case TimebaseMain:
		return "MAIN"
	case TimebaseWindow:
		return "WINDow"
	case TimebaseXY:
		return "XY"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined timebase mode.
func (m TimebaseMode) IsValid() bool {
	return m <= TimebaseXY
}

// ParseTimebaseMode matches a query response to a timebase mode.
func ParseTimebaseMode(s string) (TimebaseMode, error) {
	for _, m := range []TimebaseMode{TimebaseMain, TimebaseWindow, TimebaseXY} {
		if matchMnemonic(s, m.String()) {
			return m, nil
		}
	}
	return 0, fieldError("timebase mode", s)
}

// Waveform is an AWG output function.
type Waveform uint8

const (
	WaveformArbitrary Waveform = iota
	WaveformSine
	WaveformSquare
	WaveformPulse
	WaveformRamp
	WaveformDC
	WaveformNoise
	WaveformSinc
	WaveformGaussian
	WaveformLorentz
	WaveformExpRise
	WaveformExpFall
	WaveformHaversine
	WaveformCardiac
)

// String returns the wire mnemonic.
func (w Waveform) String() string {
	switch w {
	case WaveformArbitrary:
		return "ARBitrary"
	case WaveformSine:
		return "SINE"
	case WaveformSquare:
		return "SQUAre"
	case WaveformPulse:
		return "PULSe"
	case WaveformRamp:
		return "RAMP"
	case WaveformDC:
		return "DC"
	case WaveformNoise:
		return "NOISe"
	case WaveformSinc:
		return "SINC"
	case WaveformGaussian:
		return "GAUSsian"
	case WaveformLorentz:
		return "LORENtz"
	case WaveformExpRise:
		return "EXPRise"
	case WaveformExpFall:
		return "EXPFall"
	case WaveformHaversine:
		return "HAVERSINe"
	case WaveformCardiac:
		return "CARDIac"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined waveform.
func (w Waveform) IsValid() bool {
	return w <= WaveformCardiac
}

// ParseWaveform matches a query response to a waveform shape.
func ParseWaveform(s string) (Waveform, error) {
	for w := WaveformArbitrary; w <= WaveformCardiac; w++ {
		if matchMnemonic(s, w.String()) {
			return w, nil
		}
	}
	return 0, fieldError("waveform", s)
}

// LoadImpedance is the AWG output termination setting.
type LoadImpedance uint8

const (
	LoadFifty LoadImpedance = iota
	LoadHighZ
)

// String returns the wire mnemonic.
func (l LoadImpedance) String() string {
	switch l {
	case LoadFifty:
		return "FIFTY"
	case LoadHighZ:
		return "HIGHZ"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined load impedance.
func (l LoadImpedance) IsValid() bool {
	return l <= LoadHighZ
}

// ParseLoadImpedance matches a query response to a load impedance.
func ParseLoadImpedance(s string) (LoadImpedance, error) {
	for l := LoadFifty; l <= LoadHighZ; l++ {
		if matchMnemonic(s, l.String()) {
			return l, nil
		}
	}
	return 0, fieldError("load impedance", s)
}

// DMMFunction is a multimeter measurement function.
type DMMFunction uint8

const (
	DMMACVolts DMMFunction = iota
	DMMDCVolts
	DMMACMillivolts
	DMMDCMillivolts
	DMMACMilliamps
	DMMDCMilliamps
	DMMACAmps
	DMMDCAmps
	DMMResistance
	DMMDiode
	DMMContinuity
	DMMTemperature
)

// String returns the wire mnemonic.
func (f DMMFunction) String() string {
	switch f {
	case DMMACVolts:
		return "ACV"
	case DMMDCVolts:
		return "DCV"
	case DMMACMillivolts:
		return "ACMV"
	case DMMDCMillivolts:
		return "DCMV"
	case DMMACMilliamps:
		return "ACMA"
	case DMMDCMilliamps:
		return "DCMA"
	case DMMACAmps:
		return "ACA"
	case DMMDCAmps:
		return "DCA"
	case DMMResistance:
		return "OHM"
	case DMMDiode:
		return "DIODE"
	case DMMContinuity:
		return "BEEP"
	case DMMTemperature:
		return "TEMPerature"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined DMM function.
func (f DMMFunction) IsValid() bool {
	return f <= DMMTemperature
}

// ParseDMMFunction matches a query response to a DMM function.
func ParseDMMFunction(s string) (DMMFunction, error) {
	for f := DMMACVolts; f <= DMMTemperature; f++ {
		if matchMnemonic(s, f.String()) {
			return f, nil
		}
	}
	return 0, fieldError("DMM function", s)
}

// ThermocoupleType is the sensor type for DMM temperature mode.
type ThermocoupleType uint8

const (
	ThermocoupleB ThermocoupleType = iota
	ThermocoupleE
	ThermocoupleJ
	ThermocoupleK
	ThermocoupleN
	ThermocoupleR
	ThermocoupleS
	ThermocoupleT
)

// String returns the wire mnemonic.
func (t ThermocoupleType) String() string {
	switch t {
	case ThermocoupleB:
		return "TYPEB"
	case ThermocoupleE:
		return "TYPEE"
	case ThermocoupleJ:
		return "TYPEJ"
	case ThermocoupleK:
		return "TYPEK"
	case ThermocoupleN:
		return "TYPEN"
	case ThermocoupleR:
		return "TYPER"
	case ThermocoupleS:
		return "TYPES"
	case ThermocoupleT:
		return "TYPET"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined thermocouple type.
func (t ThermocoupleType) IsValid() bool {
	return t <= ThermocoupleT
}

// TemperatureUnit is the DMM temperature display unit.
type TemperatureUnit uint8

const (
	TemperatureCelsius TemperatureUnit = iota
	TemperatureFahrenheit
)

// String returns the wire mnemonic.
func (u TemperatureUnit) String() string {
	switch u {
	case TemperatureCelsius:
		return "C"
	case TemperatureFahrenheit:
		return "F"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined temperature unit.
func (u TemperatureUnit) IsValid() bool {
	return u <= TemperatureFahrenheit
}

// BusType is a serial decode protocol.
type BusType uint8

const (
	BusUART BusType = iota
	BusI2C
	BusSPI
	BusParallel
	BusCAN
	BusLIN
	BusCANFD
	BusUSB2
	BusFlexRay
	BusI2S
	BusUSBPD
)

// String returns the wire mnemonic.
func (b BusType) String() string {
	switch b {
	case BusUART:
		return "UART"
	case BusI2C:
		return "I2C"
	case BusSPI:
		return "SPI"
	case BusParallel:
		return "PARallel"
	case BusCAN:
		return "CAN"
	case BusLIN:
		return "LIN"
	case BusCANFD:
		return "CANFD"
	case BusUSB2:
		return "USB2"
	case BusFlexRay:
		return "FLEXray"
	case BusI2S:
		return "I2S"
	case BusUSBPD:
		return "USBPD"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined bus type.
func (b BusType) IsValid() bool {
	return b <= BusUSBPD
}

// ParseBusType matches a query response to a bus type.
func ParseBusType(s string) (BusType, error) {
	for b := BusUART; b <= BusUSBPD; b++ {
		if matchMnemonic(s, b.String()) {
			return b, nil
		}
	}
	return 0, fieldError("bus type", s)
}

// BusInput selects analog or digital channels as the decode source.
type BusInput uint8

const (
	BusInputAnalog BusInput = iota
	BusInputDigital
)

// String returns the wire mnemonic.
func (i BusInput) String() string {
	switch i {
	case BusInputAnalog:
		return "ANAlog"
	case BusInputDigital:
		return "DIGital"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined bus input.
func (i BusInput) IsValid() bool {
	return i <= BusInputDigital
}

// BusFormat is the symbol display radix for decoded traffic.
type BusFormat uint8

const (
	BusFormatBinary BusFormat = iota
	BusFormatHex
)

// String returns the wire mnemonic.
func (f BusFormat) String() string {
	switch f {
	case BusFormatBinary:
		return "BINary"
	case BusFormatHex:
		return "HEXadecimal"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined bus format.
func (f BusFormat) IsValid() bool {
	return f <= BusFormatHex
}

// SpectrumWindow is the FFT window function.
type SpectrumWindow uint8

const (
	WindowRectangular SpectrumWindow = iota
	WindowHamming
	WindowHanning
	WindowBlackman
)

// String returns the wire mnemonic.
func (w SpectrumWindow) String() string {
	switch w {
	case WindowRectangular:
		return "RECTANGULAR"
	case WindowHamming:
		return "HAMMING"
	case WindowHanning:
		return "HANNING"
	case WindowBlackman:
		return "BLACKMAN"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined window.
func (w SpectrumWindow) IsValid() bool {
	return w <= WindowBlackman
}

// SpectrumUnit is the magnitude scale unit.
type SpectrumUnit uint8

const (
	UnitDBV SpectrumUnit = iota
	UnitLinear
	UnitDBM
)

// String returns the wire mnemonic.
func (u SpectrumUnit) String() string {
	switch u {
	case UnitDBV:
		return "DBV"
	case UnitLinear:
		return "LINEAR"
	case UnitDBM:
		return "DBM"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined unit.
func (u SpectrumUnit) IsValid() bool {
	return u <= UnitDBM
}

// SpectrumTrace is one of the analyzer's trace buffers.
type SpectrumTrace uint8

const (
	TraceNormal SpectrumTrace = iota
	TraceAverage
	TraceMaxHold
	TraceMinHold
)

// String returns the wire mnemonic.
func (t SpectrumTrace) String() string {
	switch t {
	case TraceNormal:
		return "NORMAL"
	case TraceAverage:
		return "AVERAGE"
	case TraceMaxHold:
		return "MAXHOLD"
	case TraceMinHold:
		return "MINHOLD"
	default:
		return "UNKNOWN"
	}
}

// IsValid returns true for a defined trace.
func (t SpectrumTrace) IsValid() bool {
	return t <= TraceMinHold
}

// ParseSpectrumTrace matches a query response to a trace buffer.
func ParseSpectrumTrace(s string) (SpectrumTrace, error) {
	for t := TraceNormal; t <= TraceMinHold; t++ {
		if matchMnemonic(s, t.String()) {
			return t, nil
		}
	}
	return 0, fieldError("spectrum trace", s)
}
