package instrument

import (
	"context"
	"testing"

	"github.com/benchwire-project/benchwire-go/internal/testharness/mock"
	"github.com/benchwire-project/benchwire-go/pkg/profile"
	"github.com/benchwire-project/benchwire-go/pkg/session"
	"github.com/benchwire-project/benchwire-go/pkg/transport"
)

// newTestScope wires a scope to the simulated firmware over the
// internal transport, using the full-featured 2000P profile.
func newTestScope(t *testing.T) (*Scope, *mock.Instrument) {
	t.Helper()
	return newFamilyScope(t, "bw2000p")
}

func newFamilyScope(t *testing.T, family string) (*Scope, *mock.Instrument) {
	t.Helper()
	inst := mock.NewInstrument()
	sess := session.New(transport.NewInternalEndpoint("firmware", inst), session.Options{})
	if err := sess.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { sess.Close() })
	prof, err := profile.Load(family)
	if err != nil {
		t.Fatalf("Load(%s) failed: %v", family, err)
	}
	prof.Timing.AcquirePollMS = 1
	return NewScope(sess, prof), inst
}

func sawCommand(inst *mock.Instrument, cmd string) bool {
	for _, c := range inst.Commands() {
		if c == cmd {
			return true
		}
	}
	return false
}

func TestIdentifyCaches(t *testing.T) {
	scope, _ := newTestScope(t)

	if _, ok := scope.Identity(); ok {
		t.Fatal("identity cached before Identify")
	}
	id, err := scope.Identify(context.Background())
	if err != nil {
		t.Fatalf("Identify failed: %v", err)
	}
	if id.Model != "BW-2204P" {
		t.Errorf("model: got %q, want BW-2204P", id.Model)
	}
	if n := id.ChannelCount(); n != 4 {
		t.Errorf("channel count: got %d, want 4", n)
	}
	cached, ok := scope.Identity()
	if !ok {
		t.Fatal("identity not cached after Identify")
	}
	if cached.Serial != "BW000123" {
		t.Errorf("cached serial: got %q, want BW000123", cached.Serial)
	}
}

func TestRunReturnsSyncToIdle(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Single(ctx); err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if st := scope.Sync.State(); st != AcqSampling {
		t.Fatalf("state after Single: got %v, want %v", st, AcqSampling)
	}
	if err := scope.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if st := scope.Sync.State(); st != AcqIdle {
		t.Errorf("state after Run: got %v, want %v", st, AcqIdle)
	}
	if !sawCommand(inst, ":RUN") {
		t.Errorf("commands %v missing :RUN", inst.Commands())
	}
}

func TestStopReturnsSyncToIdle(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Single(ctx); err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if err := scope.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if st := scope.Sync.State(); st != AcqIdle {
		t.Errorf("state after Stop: got %v, want %v", st, AcqIdle)
	}
	if inst.LastCommand() != ":STOP" {
		t.Errorf("last command: got %q, want :STOP", inst.LastCommand())
	}
}

func TestAutosetDropsChannelCache(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Channel.SetScale(ctx, 1, 0.5); err != nil {
		t.Fatalf("SetScale failed: %v", err)
	}
	if _, ok := scope.Channel.Cached(1); !ok {
		t.Fatal("channel state not cached after SetScale")
	}
	if err := scope.Autoset(ctx); err != nil {
		t.Fatalf("Autoset failed: %v", err)
	}
	if _, ok := scope.Channel.Cached(1); ok {
		t.Error("channel cache survived Autoset")
	}
	if inst.LastCommand() != "AUTOS" {
		t.Errorf("last command: got %q, want AUTOS", inst.LastCommand())
	}
}

func TestResetDropsCacheAndSync(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Channel.SetScale(ctx, 2, 1.0); err != nil {
		t.Fatalf("SetScale failed: %v", err)
	}
	if err := scope.Single(ctx); err != nil {
		t.Fatalf("Single failed: %v", err)
	}
	if err := scope.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, ok := scope.Channel.Cached(2); ok {
		t.Error("channel cache survived Reset")
	}
	if st := scope.Sync.State(); st != AcqIdle {
		t.Errorf("state after Reset: got %v, want %v", st, AcqIdle)
	}
	if !sawCommand(inst, "*RST") {
		t.Errorf("commands %v missing *RST", inst.Commands())
	}
}

func TestForce(t *testing.T) {
	scope, inst := newTestScope(t)

	if err := scope.Force(context.Background()); err != nil {
		t.Fatalf("Force failed: %v", err)
	}
	if inst.LastCommand() != ":FORCe" {
		t.Errorf("last command: got %q, want :FORCe", inst.LastCommand())
	}
}

func TestOperationComplete(t *testing.T) {
	scope, _ := newTestScope(t)

	done, err := scope.OperationComplete(context.Background())
	if err != nil {
		t.Fatalf("OperationComplete failed: %v", err)
	}
	if !done {
		t.Error("OperationComplete: got false, want true")
	}
}

func TestSystemError(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	se, err := scope.SystemError(ctx)
	if err != nil {
		t.Fatalf("SystemError failed: %v", err)
	}
	if se.IsError() {
		t.Errorf("empty queue reported error: %+v", se)
	}

	inst.Respond("SYST:ERR?", `-113,"Undefined header"`)
	se, err = scope.SystemError(ctx)
	if err != nil {
		t.Fatalf("SystemError failed: %v", err)
	}
	if se.Code != -113 || se.Message != "Undefined header" {
		t.Errorf("system error: got %+v, want code -113", se)
	}
}
