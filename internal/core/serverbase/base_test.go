// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLifecycleHappyPath(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if b.State() != StateCreated {
		t.Fatalf("initial state = %s", b.State())
	}
	if err := b.TransitionToStarting(context.Background()); err != nil {
		t.Fatalf("TransitionToStarting() error: %v", err)
	}
	if err := b.TransitionToStarting(context.Background()); err == nil {
		t.Error("second TransitionToStarting() succeeded")
	}

	b.TransitionToRunning()
	if !b.IsRunning() {
		t.Fatalf("state = %s, want running", b.State())
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.WaitForReady(ctx); err != nil {
		t.Errorf("WaitForReady() error: %v", err)
	}

	if !b.TransitionToStopping() {
		t.Fatal("TransitionToStopping() = false, want ownership of shutdown")
	}
	if b.Context().Err() == nil {
		t.Error("server context not cancelled on stop")
	}
	if b.TransitionToStopping() {
		t.Error("second TransitionToStopping() = true")
	}
	b.TransitionToStopped()
	if !b.State().IsTerminal() {
		t.Errorf("state = %s, want terminal", b.State())
	}
}

func TestStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewBase()
	err := b.TransitionToStarting(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("TransitionToStarting() error = %v, want context.Canceled", err)
	}
	if b.State() != StateFailed {
		t.Errorf("state = %s, want failed", b.State())
	}
	select {
	case got := <-b.Err():
		if !errors.Is(got, context.Canceled) {
			t.Errorf("Err() delivered %v", got)
		}
	default:
		t.Error("failure not published on Err()")
	}
}

func TestStopBeforeStart(t *testing.T) {
	t.Parallel()

	b := NewBase()
	if b.TransitionToStopping() {
		t.Error("TransitionToStopping() on created server = true")
	}
	if b.State() != StateStopped {
		t.Errorf("state = %s, want stopped", b.State())
	}
}

func TestSendErrorDoesNotBlock(t *testing.T) {
	t.Parallel()

	b := NewBase()
	b.SendError(errors.New("first"))
	b.SendError(errors.New("dropped"))
	if got := <-b.Err(); got.Error() != "first" {
		t.Errorf("Err() = %v, want first", got)
	}
}

func TestWaitForReadyTimeout(t *testing.T) {
	t.Parallel()

	b := NewBase()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := b.WaitForReady(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitForReady() error = %v, want deadline exceeded", err)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	for s, want := range map[State]string{
		StateCreated: "created", StateRunning: "running", StateFailed: "failed", State(42): "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
