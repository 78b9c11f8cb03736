package instrument

import (
	"context"
	"fmt"
	"strings"

	"github.com/benchwire-project/benchwire-go/pkg/scpi"
)

// SourceOff disconnects an optional decode line (SPI MOSI/MISO).
const SourceOff = -1

// UARTParity is the UART parity mode. The zero value leaves the
// instrument setting unchanged.
type UARTParity uint8

const (
	UARTParityNone UARTParity = iota + 1
	UARTParityOdd
	UARTParityEven
)

// wire returns the numeric encoding the decode engine expects.
func (p UARTParity) wire() int { return int(p) - 1 }

// UARTEOF is the end-of-packet character. The zero value leaves the
// instrument setting unchanged.
type UARTEOF uint8

const (
	UARTEOFNull UARTEOF = iota + 1
	UARTEOFLineFeed
	UARTEOFCarriageReturn
	UARTEOFSpace
	UARTEOFHexFF
)

func (e UARTEOF) wire() int { return int(e) - 1 }

// SPIEdge is the SPI clock's active edge.
type SPIEdge uint8

const (
	SPIEdgeRising SPIEdge = iota + 1
	SPIEdgeFalling
)

// String returns the wire mnemonic.
func (e SPIEdge) String() string {
	if e == SPIEdgeFalling {
		return "FALL"
	}
	return "RISE"
}

// SPILevel is the SPI slave-select active level.
type SPILevel uint8

const (
	SPILevelLow SPILevel = iota + 1
	SPILevelHigh
)

// String returns the wire mnemonic.
func (l SPILevel) String() string {
	if l == SPILevelHigh {
		return "HIGH"
	}
	return "LOW"
}

// BitOrder is the SPI word bit order.
type BitOrder uint8

const (
	BitOrderMSB BitOrder = iota + 1
	BitOrderLSB
)

func (b BitOrder) wire() int { return int(b) - 1 }

// CANProbe is the point of the CAN bus the probe touches.
type CANProbe uint8

const (
	CANProbeHigh CANProbe = iota + 1
	CANProbeLow
	CANProbeTx
	CANProbeRx
)

// String returns the wire mnemonic.
func (c CANProbe) String() string {
	switch c {
	case CANProbeHigh:
		return "CANH"
	case CANProbeLow:
		return "CANL"
	case CANProbeTx:
		return "TX"
	case CANProbeRx:
		return "RX"
	default:
		return "UNKNOWN"
	}
}

// LINIDFormat selects whether the LIN identifier includes parity.
type LINIDFormat uint8

const (
	LINIDNoParity LINIDFormat = iota + 1
	LINIDParity
)

// String returns the wire mnemonic.
func (f LINIDFormat) String() string {
	if f == LINIDParity {
		return "PARIty"
	}
	return "NOPARrity"
}

// LINPolarity is the LIN signal polarity.
type LINPolarity uint8

const (
	LINPolarityNormal LINPolarity = iota + 1
	LINPolarityInverted
)

// String returns the wire mnemonic.
func (p LINPolarity) String() string {
	if p == LINPolarityInverted {
		return "INVerted"
	}
	return "NORMal"
}

// LINVersion is the LIN standard revision to decode.
type LINVersion uint8

const (
	LINV1 LINVersion = iota + 1
	LINV2
	LINBoth
)

// String returns the wire mnemonic.
func (v LINVersion) String() string {
	switch v {
	case LINV1:
		return "V1X"
	case LINV2:
		return "V2X"
	case LINBoth:
		return "BOTH"
	default:
		return "UNKNOWN"
	}
}

// ConfigureUART carries UART decode parameters. Zero fields are
// skipped; Packet is a pointer so framing can be switched off
// explicitly.
type ConfigureUART struct {
	Bitrate   int
	DataBits  int
	Parity    UARTParity
	Packet    *bool
	EOFPacket UARTEOF
	TxSource  int
	RxSource  int
}

// ConfigureI2C carries I2C decode parameters. Zero fields are
// skipped.
type ConfigureI2C struct {
	IncludeRW   *bool
	ClockSource int
	DataSource  int
}

// ConfigureSPI carries SPI decode parameters. Zero fields are
// skipped; MOSI and MISO accept SourceOff to disconnect the line.
type ConfigureSPI struct {
	ClockPolarity  SPIEdge
	SelectPolarity SPILevel
	WordSize       int
	BitOrder       BitOrder
	Clock          int
	Select         int
	MOSI           int
	MISO           int
}

// ConfigureCAN carries CAN decode parameters. Zero fields are
// skipped; Bitrate is in bits per second.
type ConfigureCAN struct {
	Source     int
	SignalType CANProbe
	Bitrate    int
}

// ConfigureLIN carries LIN decode parameters. Zero fields are
// skipped.
type ConfigureLIN struct {
	Bitrate  int
	IDFormat LINIDFormat
	Polarity LINPolarity
	Source   int
	Version  LINVersion
}

// Bus controls the serial decode engine.
type Bus struct {
	scope *Scope
}

func (b *Bus) checkChannel(what string, ch int) error {
	if !b.scope.prof.ValidChannel(ch) {
		return fmt.Errorf("%s channel %d outside 1..%d: %w",
			what, ch, b.scope.prof.Channels, scpi.ErrInvalidParameter)
	}
	return nil
}

// SetOn turns the decode display on.
func (b *Bus) SetOn(ctx context.Context) error {
	_, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "state", true))
	return err
}

// SetOff turns the decode display off.
func (b *Bus) SetOff(ctx context.Context) error {
	_, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "state", false))
	return err
}

// IsOn reports whether the decode display is on.
func (b *Bus) IsOn(ctx context.Context) (bool, error) {
	resp, err := b.scope.sess.Send(ctx, scpi.Query(scpi.ModBus, "state"))
	if err != nil {
		return false, err
	}
	return resp.Bool()
}

// SetType selects the decoded protocol. The profile gates the
// extended protocols: families without the option reject them before
// any write.
func (b *Bus) SetType(ctx context.Context, bt scpi.BusType) error {
	if !bt.IsValid() {
		return fmt.Errorf("bus type %d: %w", bt, scpi.ErrInvalidParameter)
	}
	if !b.scope.prof.SupportsBus(bt.String()) {
		return fmt.Errorf("bus type %s unsupported on %s: %w",
			bt, b.scope.prof.Family, scpi.ErrInvalidParameter)
	}
	_, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "type", bt))
	return err
}

// Type returns the decoded protocol.
func (b *Bus) Type(ctx context.Context) (scpi.BusType, error) {
	resp, err := b.scope.sess.Send(ctx, scpi.Query(scpi.ModBus, "type"))
	if err != nil {
		return 0, err
	}
	return scpi.ParseBusType(resp.Payload)
}

// SetInput selects analog or digital channels as the decode source.
func (b *Bus) SetInput(ctx context.Context, in scpi.BusInput) error {
	if !in.IsValid() {
		return fmt.Errorf("bus input %d: %w", in, scpi.ErrInvalidParameter)
	}
	_, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "input", in))
	return err
}

// SetDisplayFormat selects the radix decoded symbols display in.
func (b *Bus) SetDisplayFormat(ctx context.Context, f scpi.BusFormat) error {
	if !f.IsValid() {
		return fmt.Errorf("bus format %d: %w", f, scpi.ErrInvalidParameter)
	}
	_, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "format", f))
	return err
}

// SupportedTypes asks the instrument which protocols it decodes.
func (b *Bus) SupportedTypes(ctx context.Context) ([]scpi.BusType, error) {
	resp, err := b.scope.sess.Send(ctx, scpi.Query(scpi.ModBus, "supported"))
	if err != nil {
		return nil, err
	}
	var types []scpi.BusType
	for _, tok := range strings.Split(resp.Payload, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		bt, err := scpi.ParseBusType(tok)
		if err != nil {
			return nil, err
		}
		types = append(types, bt)
	}
	return types, nil
}

// ConfigureUART applies UART decode parameters, one command per set
// field. All fields validate before the first write.
func (b *Bus) ConfigureUART(ctx context.Context, cfg ConfigureUART) error {
	if cfg.Bitrate < 0 {
		return fmt.Errorf("uart bitrate %d: %w", cfg.Bitrate, scpi.ErrInvalidParameter)
	}
	if cfg.DataBits != 0 && (cfg.DataBits < 5 || cfg.DataBits > 9) {
		return fmt.Errorf("uart data bits %d outside 5..9: %w", cfg.DataBits, scpi.ErrInvalidParameter)
	}
	if cfg.Parity > UARTParityEven {
		return fmt.Errorf("uart parity %d: %w", cfg.Parity, scpi.ErrInvalidParameter)
	}
	if cfg.EOFPacket > UARTEOFHexFF {
		return fmt.Errorf("uart eof %d: %w", cfg.EOFPacket, scpi.ErrInvalidParameter)
	}
	if cfg.TxSource != 0 {
		if err := b.checkChannel("uart tx", cfg.TxSource); err != nil {
			return err
		}
	}
	if cfg.RxSource != 0 {
		if err := b.checkChannel("uart rx", cfg.RxSource); err != nil {
			return err
		}
	}

	if cfg.Bitrate != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.bitrate", cfg.Bitrate)); err != nil {
			return err
		}
	}
	if cfg.DataBits != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.databits", cfg.DataBits)); err != nil {
			return err
		}
	}
	if cfg.Parity != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.parity", cfg.Parity.wire())); err != nil {
			return err
		}
	}
	if cfg.Packet != nil {
		v := 0
		if *cfg.Packet {
			v = 1
		}
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.packet", v)); err != nil {
			return err
		}
	}
	if cfg.EOFPacket != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.eof", cfg.EOFPacket.wire())); err != nil {
			return err
		}
	}
	if cfg.TxSource != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.tx", scpi.ChannelSource(cfg.TxSource))); err != nil {
			return err
		}
	}
	if cfg.RxSource != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "uart.rx", scpi.ChannelSource(cfg.RxSource))); err != nil {
			return err
		}
	}
	return nil
}

// ConfigureI2C applies I2C decode parameters, one command per set
// field.
func (b *Bus) ConfigureI2C(ctx context.Context, cfg ConfigureI2C) error {
	if cfg.ClockSource != 0 {
		if err := b.checkChannel("i2c clock", cfg.ClockSource); err != nil {
			return err
		}
	}
	if cfg.DataSource != 0 {
		if err := b.checkChannel("i2c data", cfg.DataSource); err != nil {
			return err
		}
	}

	if cfg.IncludeRW != nil {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "i2c.rw", *cfg.IncludeRW)); err != nil {
			return err
		}
	}
	if cfg.ClockSource != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "i2c.sclk", scpi.ChannelSource(cfg.ClockSource))); err != nil {
			return err
		}
	}
	if cfg.DataSource != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "i2c.sda", scpi.ChannelSource(cfg.DataSource))); err != nil {
			return err
		}
	}
	return nil
}

// ConfigureSPI applies SPI decode parameters, one command per set
// field.
func (b *Bus) ConfigureSPI(ctx context.Context, cfg ConfigureSPI) error {
	if cfg.ClockPolarity > SPIEdgeFalling {
		return fmt.Errorf("spi clock polarity %d: %w", cfg.ClockPolarity, scpi.ErrInvalidParameter)
	}
	if cfg.SelectPolarity > SPILevelHigh {
		return fmt.Errorf("spi select polarity %d: %w", cfg.SelectPolarity, scpi.ErrInvalidParameter)
	}
	if cfg.WordSize != 0 && (cfg.WordSize < 4 || cfg.WordSize > 32) {
		return fmt.Errorf("spi word size %d outside 4..32: %w", cfg.WordSize, scpi.ErrInvalidParameter)
	}
	if cfg.BitOrder > BitOrderLSB {
		return fmt.Errorf("spi bit order %d: %w", cfg.BitOrder, scpi.ErrInvalidParameter)
	}
	for _, line := range []struct {
		name string
		ch   int
	}{
		{"spi clock", cfg.Clock},
		{"spi select", cfg.Select},
	} {
		if line.ch != 0 {
			if err := b.checkChannel(line.name, line.ch); err != nil {
				return err
			}
		}
	}
	for _, line := range []struct {
		name string
		ch   int
	}{
		{"spi mosi", cfg.MOSI},
		{"spi miso", cfg.MISO},
	} {
		if line.ch != 0 && line.ch != SourceOff {
			if err := b.checkChannel(line.name, line.ch); err != nil {
				return err
			}
		}
	}

	if cfg.ClockPolarity != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.sclkpol", cfg.ClockPolarity)); err != nil {
			return err
		}
	}
	if cfg.SelectPolarity != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.sspol", cfg.SelectPolarity)); err != nil {
			return err
		}
	}
	if cfg.WordSize != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.wordsize", cfg.WordSize)); err != nil {
			return err
		}
	}
	if cfg.BitOrder != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.bitorder", cfg.BitOrder.wire())); err != nil {
			return err
		}
	}
	if cfg.Clock != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.sclk", scpi.ChannelSource(cfg.Clock))); err != nil {
			return err
		}
	}
	if cfg.Select != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.ss", scpi.ChannelSource(cfg.Select))); err != nil {
			return err
		}
	}
	if cfg.MOSI != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.mosi", dataLine(cfg.MOSI))); err != nil {
			return err
		}
	}
	if cfg.MISO != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "spi.miso", dataLine(cfg.MISO))); err != nil {
			return err
		}
	}
	return nil
}

// dataLine renders an optional decode line source.
func dataLine(ch int) string {
	if ch == SourceOff {
		return "OFF"
	}
	return scpi.ChannelSource(ch).String()
}

// ConfigureCAN applies CAN decode parameters, one command per set
// field.
func (b *Bus) ConfigureCAN(ctx context.Context, cfg ConfigureCAN) error {
	if cfg.Source != 0 {
		if err := b.checkChannel("can source", cfg.Source); err != nil {
			return err
		}
	}
	if cfg.SignalType > CANProbeRx {
		return fmt.Errorf("can signal type %d: %w", cfg.SignalType, scpi.ErrInvalidParameter)
	}
	if cfg.Bitrate < 0 {
		return fmt.Errorf("can bitrate %d: %w", cfg.Bitrate, scpi.ErrInvalidParameter)
	}

	if cfg.Source != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "can.source", scpi.ChannelSource(cfg.Source))); err != nil {
			return err
		}
	}
	if cfg.SignalType != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "can.probe", cfg.SignalType)); err != nil {
			return err
		}
	}
	if cfg.Bitrate != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "can.bitrate", cfg.Bitrate)); err != nil {
			return err
		}
	}
	return nil
}

// CANSamplePoint returns the CAN sample point as a percentage of the
// bit time.
func (b *Bus) CANSamplePoint(ctx context.Context) (int, error) {
	resp, err := b.scope.sess.Send(ctx, scpi.Query(scpi.ModBus, "can.samplepoint"))
	if err != nil {
		return 0, err
	}
	return resp.Int()
}

// ConfigureLIN applies LIN decode parameters, one command per set
// field.
func (b *Bus) ConfigureLIN(ctx context.Context, cfg ConfigureLIN) error {
	if cfg.Bitrate < 0 {
		return fmt.Errorf("lin bitrate %d: %w", cfg.Bitrate, scpi.ErrInvalidParameter)
	}
	if cfg.IDFormat > LINIDParity {
		return fmt.Errorf("lin id format %d: %w", cfg.IDFormat, scpi.ErrInvalidParameter)
	}
	if cfg.Polarity > LINPolarityInverted {
		return fmt.Errorf("lin polarity %d: %w", cfg.Polarity, scpi.ErrInvalidParameter)
	}
	if cfg.Source != 0 {
		if err := b.checkChannel("lin source", cfg.Source); err != nil {
			return err
		}
	}
	if cfg.Version > LINBoth {
		return fmt.Errorf("lin version %d: %w", cfg.Version, scpi.ErrInvalidParameter)
	}

	if cfg.Bitrate != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "lin.bitrate", cfg.Bitrate)); err != nil {
			return err
		}
	}
	if cfg.IDFormat != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "lin.idformat", cfg.IDFormat)); err != nil {
			return err
		}
	}
	if cfg.Polarity != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "lin.polarity", cfg.Polarity)); err != nil {
			return err
		}
	}
	if cfg.Source != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "lin.source", scpi.ChannelSource(cfg.Source))); err != nil {
			return err
		}
	}
	if cfg.Version != 0 {
		if _, err := b.scope.sess.Send(ctx, scpi.Set(scpi.ModBus, "lin.standard", cfg.Version)); err != nil {
			return err
		}
	}
	return nil
}

// LINSamplePoint returns the LIN sample point as a percentage of the
// bit time.
func (b *Bus) LINSamplePoint(ctx context.Context) (int, error) {
	resp, err := b.scope.sess.Send(ctx, scpi.Query(scpi.ModBus, "lin.samplepoint"))
	if err != nil {
		return 0, err
	}
	return resp.Int()
}
