package effects

import (
	"context"
	"sync"
)

// TaskHandle tracks the effects started by one send.
//
// It completes once all of them have finished or been cancelled. Cancelling
// the handle cancels every effect it tracks.
type TaskHandle struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   int
	sealed    bool
	cancelled bool
	done      chan struct{}
}

// NewTaskHandle derives the task's context from parent.
func NewTaskHandle(parent context.Context) *TaskHandle {
	ctx, cancel := context.WithCancel(parent)
	return &TaskHandle{ctx: ctx, cancel: cancel, done: make(chan struct{})}
}

// CompletedTask is a handle with nothing to wait for.
func CompletedTask() *TaskHandle {
	t := NewTaskHandle(context.Background())
	t.Seal()
	return t
}

func (t *TaskHandle) Context() context.Context {
	return t.ctx
}

// Cancel stops every effect the task tracks. It is a no-op on a completed task.
func (t *TaskHandle) Cancel() {
	t.mu.Lock()
	select {
	case <-t.done:
	default:
		t.cancelled = true
	}
	t.mu.Unlock()
	t.cancel()
}

func (t *TaskHandle) IsCancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

func (t *TaskHandle) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes or ctx is done. It returns
// context.Canceled when the task, or any effect it tracks, was cancelled.
func (t *TaskHandle) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		if t.IsCancelled() {
			return context.Canceled
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *TaskHandle) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending++
}

// finish records one tracked effect as done. cancelled reports that it
// ended because its context was cancelled, by the task or by id.
func (t *TaskHandle) finish(cancelled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cancelled {
		t.cancelled = true
	}
	t.pending--
	t.completeLocked()
}

// Seal marks that no more effects will be added. The task completes once
// the tracked ones have finished.
func (t *TaskHandle) Seal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sealed = true
	t.completeLocked()
}

func (t *TaskHandle) completeLocked() {
	if !t.sealed || t.pending > 0 {
		return
	}
	select {
	case <-t.done:
	default:
		close(t.done)
		t.cancel()
	}
}
