package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/log"
	"github.com/benchwire-project/benchwire-go/pkg/scpi"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// scriptResponder answers from a fixed command->response table and
// records every command it sees.
type scriptResponder struct {
	mu        sync.Mutex
	responses map[string]string
	received  []string
}

func newScriptResponder() *scriptResponder {
	return &scriptResponder{
		responses: map[string]string{
			"*IDN?": "BenchWire,BW-2204P,BW000123,V1.28\n",
		},
	}
}

func (r *scriptResponder) Handle(cmd string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.received = append(r.received, cmd)
	if resp, ok := r.responses[cmd]; ok {
		return []byte(resp), nil
	}
	return nil, nil
}

func (r *scriptResponder) commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.received...)
}

// recordLogger captures events for assertions.
type recordLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *recordLogger) Log(ev log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *recordLogger) all() []log.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]log.Event(nil), l.events...)
}

func newTestSession(t *testing.T, r transport.Responder, opts Options) *Session {
	t.Helper()
	sess := New(transport.NewInternalEndpoint("firmware", r), opts)
	t.Cleanup(func() { sess.Close() })
	return sess
}

func TestSessionLifecycle(t *testing.T) {
	sess := newTestSession(t, newScriptResponder(), Options{})

	if sess.State() != StateDisconnected {
		t.Fatalf("initial state: got %v, want %v", sess.State(), StateDisconnected)
	}
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if sess.State() != StateConnected {
		t.Fatalf("state after Connect: got %v, want %v", sess.State(), StateConnected)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if sess.State() != StateClosed {
		t.Fatalf("state after Close: got %v, want %v", sess.State(), StateClosed)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close: got %v, want nil", err)
	}
}

func TestSessionIDAssigned(t *testing.T) {
	a := New(transport.NewInternalEndpoint("a", newScriptResponder()), Options{})
	b := New(transport.NewInternalEndpoint("b", newScriptResponder()), Options{})
	if a.ID() == "" {
		t.Fatal("session ID is empty")
	}
	if a.ID() == b.ID() {
		t.Errorf("two sessions share ID %q", a.ID())
	}
	if a.Endpoint().ID() != "a" {
		t.Errorf("Endpoint: got %q, want %q", a.Endpoint().ID(), "a")
	}
	if a.Vocabulary() == nil {
		t.Error("Vocabulary: got nil, want default")
	}
}

func TestConnectAlreadyConnected(t *testing.T) {
	sess := newTestSession(t, newScriptResponder(), Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := sess.Connect(context.Background()); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect: got %v, want ErrAlreadyConnected", err)
	}
}

func TestConnectFailureReturnsToDisconnected(t *testing.T) {
	sess := newTestSession(t, nil, Options{})
	err := sess.Connect(context.Background())
	if !errors.Is(err, transport.ErrEndpointUnavailable) {
		t.Fatalf("Connect: got %v, want ErrEndpointUnavailable", err)
	}
	if sess.State() != StateDisconnected {
		t.Errorf("state after failed Connect: got %v, want %v", sess.State(), StateDisconnected)
	}
}

func TestSendRequiresConnection(t *testing.T) {
	sess := newTestSession(t, newScriptResponder(), Options{})
	_, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send while disconnected: got %v, want ErrNotConnected", err)
	}

	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	sess.Close()
	_, err = sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Send while closed: got %v, want ErrClosed", err)
	}
}

func TestSendQuery(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	resp, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.Status != scpi.StatusOk {
		t.Errorf("Status: got %v, want %v", resp.Status, scpi.StatusOk)
	}
	if want := "BenchWire,BW-2204P,BW000123,V1.28"; resp.Payload != want {
		t.Errorf("Payload: got %q, want %q", resp.Payload, want)
	}
	if got := r.commands(); len(got) != 1 || got[0] != "*IDN?" {
		t.Errorf("instrument saw %v, want [*IDN?]", got)
	}
}

func TestSendSetWithoutResponse(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	resp, err := sess.Send(context.Background(), scpi.Set(scpi.ModSystem, "stop"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if resp.Status != scpi.StatusOk {
		t.Errorf("Status: got %v, want %v", resp.Status, scpi.StatusOk)
	}
	if got := r.commands(); len(got) != 1 || got[0] != ":STOP" {
		t.Errorf("instrument saw %v, want [:STOP]", got)
	}
}

func TestSendInvalidCommandWritesNothing(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	tests := []struct {
		name    string
		cmd     scpi.Command
		wantErr error
	}{
		{"unknown action", scpi.Set(scpi.ModSystem, "explode"), scpi.ErrUnknownCommand},
		{"missing args", scpi.Set(scpi.ModChannel, "display", 1), scpi.ErrInvalidParameter},
		{"extra args", scpi.Set(scpi.ModSystem, "stop", 1), scpi.ErrInvalidParameter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sess.Send(context.Background(), tt.cmd)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Send: got %v, want %v", err, tt.wantErr)
			}
		})
	}
	if got := r.commands(); len(got) != 0 {
		t.Errorf("instrument saw %v, want nothing", got)
	}
	if sess.State() != StateConnected {
		t.Errorf("state: got %v, want %v", sess.State(), StateConnected)
	}
}

func TestSendContextCanceledBeforeWrite(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := sess.Send(ctx, scpi.Query(scpi.ModSystem, "identify"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Send: got %v, want context.Canceled", err)
	}
	if got := r.commands(); len(got) != 0 {
		t.Errorf("instrument saw %v, want nothing", got)
	}
	if sess.State() != StateConnected {
		t.Errorf("state: got %v, want %v", sess.State(), StateConnected)
	}
}

func TestSendTimeoutMarksSuspect(t *testing.T) {
	r := newScriptResponder()
	r.responses["*IDN?"] = "" // query that never answers
	sess := newTestSession(t, r, Options{CommandTimeout: 50 * time.Millisecond})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send: got %v, want ErrTimeout", err)
	}
	if sess.State() != StateSuspect {
		t.Fatalf("state after timeout: got %v, want %v", sess.State(), StateSuspect)
	}

	// Suspect refuses everything until Reconnect.
	_, err = sess.Send(context.Background(), scpi.Set(scpi.ModSystem, "stop"))
	if !errors.Is(err, ErrSuspect) {
		t.Fatalf("Send while suspect: got %v, want ErrSuspect", err)
	}
	if err := sess.Connect(context.Background()); !errors.Is(err, ErrSuspect) {
		t.Fatalf("Connect while suspect: got %v, want ErrSuspect", err)
	}

	// Reconnect is the way back.
	r.responses["*IDN?"] = "BenchWire,BW-2204P,BW000123,V1.28\n"
	if err := sess.Reconnect(context.Background()); err != nil {
		t.Fatalf("Reconnect failed: %v", err)
	}
	if sess.State() != StateConnected {
		t.Fatalf("state after Reconnect: got %v, want %v", sess.State(), StateConnected)
	}
	resp, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		t.Fatalf("Send after Reconnect failed: %v", err)
	}
	if resp.Payload == "" {
		t.Error("Payload empty after Reconnect")
	}
}

func TestSendMalformedResponseStaysConnected(t *testing.T) {
	r := newScriptResponder()
	r.responses["*IDN?"] = "\r\n" // empty response line
	sess := newTestSession(t, r, Options{CommandTimeout: 100 * time.Millisecond})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	_, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if !errors.Is(err, scpi.ErrMalformedResponse) {
		t.Fatalf("Send: got %v, want ErrMalformedResponse", err)
	}
	if sess.State() != StateConnected {
		t.Fatalf("state after malformed frame: got %v, want %v", sess.State(), StateConnected)
	}

	// The poisoned buffer was dropped; the next exchange is clean.
	r.responses["*IDN?"] = "BenchWire,BW-2204P,BW000123,V1.28\n"
	resp, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify"))
	if err != nil {
		t.Fatalf("Send after malformed frame failed: %v", err)
	}
	if want := "BenchWire,BW-2204P,BW000123,V1.28"; resp.Payload != want {
		t.Errorf("Payload: got %q, want %q", resp.Payload, want)
	}
}

func TestSendEnforcesGap(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{Gap: 50 * time.Millisecond})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	start := time.Now()
	if _, err := sess.Send(context.Background(), scpi.Set(scpi.ModSystem, "stop")); err != nil {
		t.Fatalf("first Send failed: %v", err)
	}
	if _, err := sess.Send(context.Background(), scpi.Set(scpi.ModSystem, "stop")); err != nil {
		t.Fatalf("second Send failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("two sends finished in %v, want at least the 50ms gap", elapsed)
	}
}

func TestSendBlockResponse(t *testing.T) {
	r := newScriptResponder()
	r.responses[":acq1:mem?"] = "Data Bit,8;Vertical Scale,0.1;Memory Length,4;\n#18\x00\x01\x00\x02\x00\x03\x00\x04\n"
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	resp, err := sess.Send(context.Background(), scpi.Query(scpi.ModWaveform, "memory", 1))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if want := "Data Bit,8;Vertical Scale,0.1;Memory Length,4;"; resp.Payload != want {
		t.Errorf("Payload: got %q, want %q", resp.Payload, want)
	}
	if len(resp.Block) != 8 {
		t.Fatalf("Block length: got %d, want 8", len(resp.Block))
	}
	if resp.Block[1] != 0x01 || resp.Block[7] != 0x04 {
		t.Errorf("Block content wrong: %v", resp.Block)
	}
}

func TestReconnectOnClosedSession(t *testing.T) {
	sess := newTestSession(t, newScriptResponder(), Options{})
	sess.Close()
	if err := sess.Reconnect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Reconnect on closed session: got %v, want ErrClosed", err)
	}
}

func TestExtendAllowsRawPassthrough(t *testing.T) {
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	// Unknown until the passthrough entries are added.
	if _, err := sess.Send(context.Background(), scpi.Raw("*IDN?")); !errors.Is(err, scpi.ErrUnknownCommand) {
		t.Fatalf("Raw before Extend: got %v, want ErrUnknownCommand", err)
	}
	if got := r.commands(); len(got) != 0 {
		t.Fatalf("rejected command reached the wire: %v", got)
	}

	sess.Extend(scpi.RawEntries())

	resp, err := sess.Send(context.Background(), scpi.Raw("*IDN?"))
	if err != nil {
		t.Fatalf("Raw after Extend failed: %v", err)
	}
	if resp.Payload != "BenchWire,BW-2204P,BW000123,V1.28" {
		t.Errorf("payload: got %q", resp.Payload)
	}
}

func TestSessionEvents(t *testing.T) {
	logger := &recordLogger{}
	r := newScriptResponder()
	sess := newTestSession(t, r, Options{Logger: logger})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if _, err := sess.Send(context.Background(), scpi.Query(scpi.ModSystem, "identify")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	sess.Close()

	var sawConnected, sawClosed, sawOut, sawIn bool
	for _, ev := range logger.all() {
		if ev.SessionID != sess.ID() {
			t.Errorf("event session ID: got %q, want %q", ev.SessionID, sess.ID())
		}
		switch ev.Category {
		case log.CategoryState:
			if ev.StateChange == nil {
				t.Fatal("state event without StateChange payload")
			}
			switch ev.StateChange.NewState {
			case "CONNECTED":
				sawConnected = true
			case "CLOSED":
				sawClosed = true
			}
		case log.CategoryCommand:
			if ev.Command == nil {
				t.Fatal("command event without Command payload")
			}
			if ev.Direction == log.DirectionOut {
				sawOut = true
				if ev.Command.Wire != "*IDN?" {
					t.Errorf("command wire: got %q, want %q", ev.Command.Wire, "*IDN?")
				}
			} else {
				sawIn = true
				if ev.Command.Payload == "" {
					t.Error("inbound command event has no payload")
				}
				if ev.Command.Elapsed == nil {
					t.Error("inbound command event has no elapsed time")
				}
			}
		}
	}
	if !sawConnected || !sawClosed {
		t.Errorf("state events: connected=%v closed=%v, want both", sawConnected, sawClosed)
	}
	if !sawOut || !sawIn {
		t.Errorf("command events: out=%v in=%v, want both", sawOut, sawIn)
	}
}
