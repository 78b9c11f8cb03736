// Package mock simulates BenchWire instrument firmware for tests.
package mock

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Instrument answers SCPI command lines the way instrument firmware
// does: set commands record state, queries echo it back, and the
// acquisition, meter and memory subsystems produce plausible data.
// It implements transport.Responder and backs an internal endpoint.
type Instrument struct {
	mu sync.Mutex

	identity string
	state    map[string]string
	canned   map[string]string
	failures map[string]error
	received []string

	// Acquisition: after :SINGle, the state query answers "0" this
	// many times before reporting complete.
	acquireDelay   int
	sampling       bool
	statePollsLeft int

	dmmValue     string
	measureValue string
	waveform     []int16
}

// NewInstrument returns a simulated four-channel instrument with
// immediate acquisition completion.
func NewInstrument() *Instrument {
	return &Instrument{
		identity:     "BenchWire,BW-2204P,BW000123,V1.28",
		state:        make(map[string]string),
		canned:       make(map[string]string),
		failures:     make(map[string]error),
		dmmValue:     "1.234",
		measureValue: "1.0e+03",
		waveform:     rampSamples(16),
	}
}

func rampSamples(n int) []int16 {
	s := make([]int16, n)
	for i := range s {
		s[i] = int16(i * 100)
	}
	return s
}

// SetIdentity changes the *IDN? response.
func (m *Instrument) SetIdentity(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identity = s
}

// SetAcquireDelay makes the acquisition state query answer "0" n times
// after each :SINGle before reporting complete.
func (m *Instrument) SetAcquireDelay(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquireDelay = n
}

// SetDMMValue changes the meter reading returned by :DMM:VALue?.
func (m *Instrument) SetDMMValue(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dmmValue = s
}

// SetMeasureValue changes the automatic measurement result.
func (m *Instrument) SetMeasureValue(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.measureValue = s
}

// SetWaveform changes the samples behind memory transfers.
func (m *Instrument) SetWaveform(samples []int16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waveform = append([]int16(nil), samples...)
}

// Respond fixes the exact response for one command line. An empty
// response makes the command answer nothing, which times a query out.
func (m *Instrument) Respond(cmd, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.canned[cmd] = response
}

// Fail makes one command line return an error from the transport.
func (m *Instrument) Fail(cmd string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[cmd] = err
}

// Commands returns every command line received so far.
func (m *Instrument) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.received...)
}

// LastCommand returns the most recent command line, or "".
func (m *Instrument) LastCommand() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.received) == 0 {
		return ""
	}
	return m.received[len(m.received)-1]
}

// ClearCommands empties the received command log.
func (m *Instrument) ClearCommands() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = nil
}

// Handle processes one command line.
func (m *Instrument) Handle(cmd string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, cmd)

	if err, ok := m.failures[cmd]; ok {
		return nil, err
	}
	if resp, ok := m.canned[cmd]; ok {
		if resp == "" {
			return nil, nil
		}
		return terminated(resp), nil
	}

	if strings.Contains(cmd, "?") {
		return m.query(cmd), nil
	}
	m.apply(cmd)
	return nil, nil
}

// apply executes a set command.
func (m *Instrument) apply(cmd string) {
	switch cmd {
	case ":SINGle":
		m.sampling = true
		m.statePollsLeft = m.acquireDelay
	case ":RUN", ":STOP":
		m.sampling = false
	}
	if base, arg, ok := strings.Cut(cmd, " "); ok {
		m.state[base] = arg
	}
}

// query answers a query command.
func (m *Instrument) query(cmd string) []byte {
	switch {
	case cmd == "*IDN?":
		return terminated(m.identity)
	case cmd == "*OPC?":
		return terminated("1")
	case cmd == "SYST:ERR?":
		return terminated(`0,"No error."`)
	case cmd == ":DMM:VALue?":
		return terminated(m.dmmValue)
	case cmd == ":BUS1?":
		return terminated("UART,I2C,SPI,PARallel,CAN,LIN")
	case strings.HasPrefix(cmd, ":MEASure:SOURce1 "):
		return terminated(m.measureValue)
	case strings.HasPrefix(cmd, ":ACQuire") && strings.HasSuffix(cmd, ":STATe?"):
		return terminated(m.acquireState())
	case strings.HasPrefix(cmd, ":acq") && strings.HasSuffix(cmd, ":mem?"):
		return m.memoryBlock()
	case strings.HasPrefix(cmd, ":SA") && strings.HasSuffix(cmd, ":MEM?"):
		return m.memoryBlock()
	}

	if strings.HasSuffix(cmd, "?") {
		if v, ok := m.state[strings.TrimSuffix(cmd, "?")]; ok {
			return terminated(v)
		}
	}
	return terminated("0")
}

func (m *Instrument) acquireState() string {
	if m.sampling {
		if m.statePollsLeft > 0 {
			m.statePollsLeft--
			return "0"
		}
		m.sampling = false
	}
	return "1"
}

// memoryBlock renders the header line and the big-endian sample block
// of a memory transfer.
func (m *Instrument) memoryBlock() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Data Bit,16;Vertical Scale,1.0e-01;Vertical Position,0.0;Memory Length,%d;Sample Rate,1.0e+06;\n",
		len(m.waveform))

	payload := make([]byte, 2*len(m.waveform))
	for i, s := range m.waveform {
		binary.BigEndian.PutUint16(payload[2*i:], uint16(s))
	}
	lenStr := strconv.Itoa(len(payload))
	fmt.Fprintf(&b, "#%d%s", len(lenStr), lenStr)
	b.Write(payload)
	b.WriteByte('\n')
	return b.Bytes()
}

func terminated(s string) []byte {
	return []byte(s + "\n")
}
