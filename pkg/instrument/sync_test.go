package instrument

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benchwire-project/benchwire-go/pkg/session"
)

func TestSingleShotLifecycle(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	inst.SetAcquireDelay(2)

	if err := scope.Sync.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if st := scope.Sync.State(); st != AcqSampling {
		t.Fatalf("state after Start: got %v, want %v", st, AcqSampling)
	}
	if err := scope.Sync.WaitForCompletion(ctx, time.Second); err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if st := scope.Sync.State(); st != AcqComplete {
		t.Errorf("state after wait: got %v, want %v", st, AcqComplete)
	}

	// A completed acquisition satisfies later waits without polling.
	inst.ClearCommands()
	if err := scope.Sync.WaitForCompletion(ctx, time.Second); err != nil {
		t.Errorf("second WaitForCompletion failed: %v", err)
	}
	if n := len(inst.Commands()); n != 0 {
		t.Errorf("second wait sent %d commands, want 0", n)
	}
}

func TestWaitWithoutArm(t *testing.T) {
	scope, _ := newTestScope(t)

	err := scope.Sync.WaitForCompletion(context.Background(), time.Second)
	if !errors.Is(err, ErrNotStarted) {
		t.Errorf("WaitForCompletion: got %v, want ErrNotStarted", err)
	}
}

func TestWaitTimeoutKeepsSampling(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()
	inst.SetAcquireDelay(100000)

	if err := scope.Sync.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	err := scope.Sync.WaitForCompletion(ctx, 20*time.Millisecond)
	if !errors.Is(err, session.ErrTimeout) {
		t.Fatalf("WaitForCompletion: got %v, want session.ErrTimeout", err)
	}
	if st := scope.Sync.State(); st != AcqSampling {
		t.Errorf("state after timeout: got %v, want %v", st, AcqSampling)
	}
}

func TestWaitContextCanceled(t *testing.T) {
	scope, inst := newTestScope(t)
	inst.SetAcquireDelay(100000)

	if err := scope.Sync.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := scope.Sync.WaitForCompletion(ctx, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WaitForCompletion: got %v, want context.Canceled", err)
	}
}

func TestGuardRefusesDuringSampling(t *testing.T) {
	scope, inst := newTestScope(t)
	ctx := context.Background()

	if err := scope.Sync.Guard(); err != nil {
		t.Fatalf("Guard while idle failed: %v", err)
	}
	if err := scope.Sync.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := scope.Sync.Guard(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Guard while sampling: got %v, want ErrNotReady", err)
	}

	// Refused reads never reach the wire.
	if _, err := scope.Measure.Value(ctx, 1, "vpp"); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Value while sampling: got %v, want ErrNotReady", err)
	}
	if last := inst.LastCommand(); last != ":SINGle" {
		t.Errorf("last command: got %q, want :SINGle", last)
	}

	if err := scope.Sync.WaitForCompletion(ctx, time.Second); err != nil {
		t.Fatalf("WaitForCompletion failed: %v", err)
	}
	if err := scope.Sync.Guard(); err != nil {
		t.Errorf("Guard after completion failed: %v", err)
	}
	if _, err := scope.Measure.Value(ctx, 1, "vpp"); err != nil {
		t.Errorf("Value after completion failed: %v", err)
	}
}
