// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base carries the lifecycle of one server instance. Concrete servers embed
// it and call the Transition* helpers from Start, their serve goroutine and
// Stop.
type Base struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error
}

// NewBase returns a Base in StateCreated.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning reports whether the server accepts requests.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err delivers errors raised after a successful start.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError is the error that moved the server to StateFailed.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Context is cancelled when the server stops or fails. Nil before start.
func (b *Base) Context() context.Context {
	return b.ctx
}

// TransitionToStarting moves Created → Starting. An already cancelled ctx
// fails the server instead.
func (b *Base) TransitionToStarting(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		b.TransitionToFailed(fmt.Errorf("context cancelled before start: %w", err))
		return b.LastError()
	}
	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}
	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// TransitionToRunning moves Starting → Running and releases WaitForReady.
func (b *Base) TransitionToRunning() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// TransitionToFailed records err, cancels the server context and publishes
// err on Err without blocking.
func (b *Base) TransitionToFailed(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// TransitionToStopping moves a live server to Stopping and reports whether
// the caller owns the shutdown. A server that never started goes straight
// to Stopped.
func (b *Base) TransitionToStopping() bool {
	for {
		cur := b.State()
		switch cur {
		case StateCreated:
			if b.state.CompareAndSwap(int32(cur), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(cur), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// TransitionToStopped marks the end of shutdown.
func (b *Base) TransitionToStopped() {
	b.state.Store(int32(StateStopped))
}

// WaitForReady blocks until the server runs or ctx ends.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// StartedChannel is closed once the server runs.
func (b *Base) StartedChannel() <-chan struct{} {
	return b.startedCh
}

// AddGoroutine registers a goroutine that WaitForShutdown waits for.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine is deferred by goroutines registered with AddGoroutine.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

// WaitForShutdown blocks until every registered goroutine returned.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// SendError publishes err on Err, dropping it when a previous error is unread.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErrChannel closes Err once the server is stopped.
func (b *Base) CloseErrChannel() {
	close(b.errCh)
}
