// Package store runs a reducer tree against a single state value.
//
// A root store owns the state. Scoped stores are views into it: their state
// is recomputed from the root on every read and their actions are embedded
// and sent to the root. All reducer runs serialize on the root's mutex;
// effects run concurrently and only communicate by sending actions.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/metrics"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/petermattis/goid"
)

type options struct {
	name      string
	collector *metrics.Collector
}

type Option func(*options)

// WithName labels the store in diagnostics and metrics.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMetrics reports store activity to c.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) {
		o.collector = c
	}
}

// Store is a root store or a view scoped from one.
type Store[S any, A any] struct {
	core *core

	// derive computes the current state from the root. Called with core.mu held.
	derive func() (S, bool)
	send   func(A) *effects.TaskHandle
	close  func()

	parent   scopeParent
	cacheKey any

	valid    bool
	last     S
	children map[any]scopedChild
}

type scopeParent interface {
	forgetChildLocked(key any)
}

type scopedChild interface {
	revalidateLocked()
	invalidateLocked()
}

type root[S any, A any] struct {
	core      *core
	state     S
	reducer   reducer.Reducer[S, A]
	rt        *effects.Runtime[A]
	reduceCtx context.Context

	buffered []A
	task     *effects.TaskHandle
	store    *Store[S, A]
}

// New starts a root store with initial state and r.
//
// ctx carries the dependencies visible to reducers and effects, and bounds
// the store's lifetime: cancelling it cancels every effect.
func New[S any, A any](ctx context.Context, initial S, r reducer.Reducer[S, A], opts ...Option) *Store[S, A] {
	o := options{name: fmt.Sprintf("%T", initial)}
	for _, opt := range opts {
		opt(&o)
	}

	c := &core{
		ctx:     ctx,
		name:    o.name,
		metrics: o.collector.ForStore(o.name),
	}
	rs := &root[S, A]{
		core:    c,
		state:   initial,
		reducer: r,
	}
	rs.rt = effects.NewRuntime(ctx, rs.deliver, effects.Hooks{
		Started:   func(string) { c.metrics.EffectStarted() },
		Finished:  func(string) { c.metrics.EffectFinished() },
		Cancelled: c.metrics.EffectsCancelled,
		Failed:    func(string, error) { c.metrics.EffectFailed() },
	})
	rs.reduceCtx = reducer.WithMisuseHook(rs.rt.Context(), c.metrics.Misuse)
	c.activeEffects = rs.rt.Active
	c.idle = rs.rt.Idle

	s := &Store[S, A]{
		core:   c,
		derive: func() (S, bool) { return rs.state, true },
		send:   func(a A) *effects.TaskHandle { return rs.process(nil, a) },
		close:  rs.close,
		valid:  true,
		last:   initial,
	}
	rs.store = s
	return s
}

// Send reduces a synchronously, together with every action fed back
// immediately, then starts the resulting effects. The returned task tracks
// those effects.
//
// Sending to a scope that is no longer valid does nothing but log a warning.
func (s *Store[S, A]) Send(a A) *effects.TaskHandle {
	valid := false
	s.core.withLock(func() {
		_, valid = s.stateLocked()
	})
	if !valid {
		s.core.metrics.StaleSend()
		s.core.warn("action sent to a scope that is no longer valid", map[string]interface{}{
			"action": fmt.Sprintf("%T", a),
		})
		return effects.CompletedTask()
	}
	return s.send(a)
}

// State is the current state, or the last one observed once the scope became invalid.
func (s *Store[S, A]) State() S {
	var st S
	s.core.withLock(func() {
		st, _ = s.stateLocked()
	})
	return st
}

// IsValid reports whether the scope's state can still be derived. Root
// stores are valid until closed.
func (s *Store[S, A]) IsValid() bool {
	valid := false
	s.core.withLock(func() {
		_, valid = s.stateLocked()
	})
	return valid
}

// ActiveEffects is the number of effects currently running in the store tree.
func (s *Store[S, A]) ActiveEffects() int64 {
	return s.core.activeEffects()
}

// Idle is closed whenever no effect is running in the store tree.
func (s *Store[S, A]) Idle() <-chan struct{} {
	return s.core.idle()
}

// Close cancels every effect, waits for them to return and invalidates every
// scope. Only the root store can be closed; on a scope it panics.
func (s *Store[S, A]) Close() {
	if s.close == nil {
		panic("store: Close called on a scoped store")
	}
	s.close()
}

func (s *Store[S, A]) stateLocked() (S, bool) {
	if !s.valid {
		return s.last, false
	}
	st, ok := s.derive()
	if !ok {
		s.invalidateLocked()
		return s.last, false
	}
	s.last = st
	return st, true
}

func (s *Store[S, A]) invalidateLocked() {
	if !s.valid {
		return
	}
	s.valid = false
	s.core.dropObserversLocked(s)
	if s.parent != nil {
		s.parent.forgetChildLocked(s.cacheKey)
	}
	for _, child := range s.children {
		child.invalidateLocked()
	}
	s.children = nil
	s.core.debug("scope invalidated", map[string]interface{}{
		"scope": fmt.Sprintf("%T", s.last),
	})
}

func (s *Store[S, A]) revalidateLocked() {
	if _, ok := s.stateLocked(); !ok {
		return
	}
	for _, child := range s.children {
		child.revalidateLocked()
	}
}

func (s *Store[S, A]) forgetChildLocked(key any) {
	delete(s.children, key)
}

// process reduces a and every action it feeds back. ctx is the context of
// the effect that sent a, nil for external sends.
func (r *root[S, A]) process(ctx context.Context, a A) *effects.TaskHandle {
	if r.core.onReducingGoroutine() {
		r.buffered = append(r.buffered, a)
		return r.task
	}

	task, prepared, notify, ok := r.reduce(ctx, a)
	if !ok {
		return effects.CompletedTask()
	}
	r.rt.Start(task, prepared)
	task.Seal()
	for _, fn := range notify {
		fn()
	}
	return task
}

// reduce runs the synchronous phase of a send under the root lock. A reducer
// panic releases the lock and propagates to the caller.
func (r *root[S, A]) reduce(ctx context.Context, a A) (*effects.TaskHandle, effects.Prepared[A], []func(), bool) {
	r.core.mu.Lock()
	defer r.core.mu.Unlock()

	if r.core.closed || (ctx != nil && ctx.Err() != nil) {
		if r.core.closed && ctx == nil {
			r.core.warn("action sent to a closed store", map[string]interface{}{
				"action": fmt.Sprintf("%T", a),
			})
		} else {
			r.core.metrics.ActionDropped()
		}
		return nil, effects.Prepared[A]{}, nil, false
	}

	task := effects.NewTaskHandle(r.rt.Context())
	r.task = task
	r.core.reducing.Store(goid.Get())
	defer func() {
		r.core.reducing.Store(0)
		r.task = nil
		if p := recover(); p != nil {
			r.buffered = nil
			task.Cancel()
			panic(p)
		}
	}()

	prepared := r.drainLocked(task.Context(), a)
	r.store.revalidateLocked()
	return task, prepared, r.core.collectChangesLocked(), true
}

func (r *root[S, A]) drainLocked(ctx context.Context, first A) effects.Prepared[A] {
	var all effects.Prepared[A]
	queue := []A{first}
	for len(queue) > 0 {
		a := queue[0]
		queue = queue[1:]

		started := time.Now()
		eff := r.reducer.Reduce(r.reduceCtx, &r.state, a)
		p := r.rt.Prepare(ctx, eff)
		r.core.metrics.ActionReduced(time.Since(started))

		queue = append(queue, p.Actions...)
		queue = append(queue, r.buffered...)
		r.buffered = nil
		p.Actions = nil
		all.Append(p)
	}
	return all
}

func (r *root[S, A]) deliver(ctx context.Context, a A) {
	r.process(ctx, a)
}

func (r *root[S, A]) close() {
	r.core.mu.Lock()
	if r.core.closed {
		r.core.mu.Unlock()
		return
	}
	r.core.closed = true
	r.store.stateLocked()
	r.store.invalidateLocked()
	r.core.observers = nil
	r.core.mu.Unlock()

	r.rt.Close()
	r.core.debug("store closed", nil)
}
