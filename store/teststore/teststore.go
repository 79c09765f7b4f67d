// Package teststore drives a store step by step and asserts every state
// change and every action fed back by effects.
//
//	ts := teststore.New(t, ctx, State{}, Feature())
//	ts.Send(Increment{}, func(s *State) { s.Count = 1 })
//	clock.Advance(time.Second)
//	ts.Receive(Tick{}, func(s *State) { s.Ticks = 1 })
//	ts.Finish()
package teststore

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/reducer"
	"github.com/on-the-ground/composable_go/store"
	"github.com/stretchr/testify/assert"
)

// DefaultTimeout bounds Receive and Finish.
var DefaultTimeout = time.Second

type envelope[A any] struct {
	action A
	sent   bool
}

type transition[S any, A any] struct {
	action A
	before S
	after  S
}

type options[A any] struct {
	timeout time.Duration
	format  func(A) string
	store   []store.Option
}

type Option[A any] func(*options[A])

// WithTimeout bounds how long Receive and Finish wait.
func WithTimeout[A any](d time.Duration) Option[A] {
	return func(o *options[A]) {
		o.timeout = d
	}
}

// WithActionFormat controls how actions appear in Trace.
func WithActionFormat[A any](format func(A) string) Option[A] {
	return func(o *options[A]) {
		o.format = format
	}
}

// WithStoreOptions passes options to the underlying store.
func WithStoreOptions[A any](opts ...store.Option) Option[A] {
	return func(o *options[A]) {
		o.store = append(o.store, opts...)
	}
}

type TestStore[S any, A any] struct {
	t     testing.TB
	store *store.Store[S, envelope[A]]
	opts  options[A]

	// state is the state the test has asserted so far.
	state S

	mu       sync.Mutex
	lastSent *transition[S, A]
	received []transition[S, A]
	arrived  chan struct{}
	trace    []string
}

// New starts a store for r. It is closed when the test ends.
func New[S any, A any](t testing.TB, ctx context.Context, initial S, r reducer.Reducer[S, A], opts ...Option[A]) *TestStore[S, A] {
	t.Helper()
	o := options[A]{
		timeout: DefaultTimeout,
		format:  func(a A) string { return fmt.Sprintf("%T%+v", a, a) },
	}
	for _, opt := range opts {
		opt(&o)
	}

	ts := &TestStore[S, A]{
		t:       t,
		opts:    o,
		state:   initial,
		arrived: make(chan struct{}, 1),
	}
	ts.store = store.New(ctx, initial, ts.record(r), o.store...)
	t.Cleanup(ts.cleanup)
	return ts
}

// record wraps r so every reduction is captured. It runs under the store's lock.
func (ts *TestStore[S, A]) record(r reducer.Reducer[S, A]) reducer.Reducer[S, envelope[A]] {
	return reducer.Func[S, envelope[A]](func(ctx context.Context, state *S, e envelope[A]) effects.Effect[envelope[A]] {
		before := *state
		eff := r.Reduce(ctx, state, e.action)
		tr := transition[S, A]{action: e.action, before: before, after: *state}

		ts.mu.Lock()
		if e.sent {
			ts.lastSent = &tr
		} else {
			ts.received = append(ts.received, tr)
			select {
			case ts.arrived <- struct{}{}:
			default:
			}
		}
		ts.mu.Unlock()

		return effects.Map(eff, func(a A) envelope[A] { return envelope[A]{action: a} })
	})
}

// State is the state as asserted so far.
func (ts *TestStore[S, A]) State() S {
	return ts.state
}

// Send sends a and asserts the resulting state equals the previous one with
// update applied. update may be nil when a changes nothing.
func (ts *TestStore[S, A]) Send(a A, update func(*S)) *effects.TaskHandle {
	ts.t.Helper()
	if n := ts.pendingCount(); n > 0 {
		ts.t.Errorf("must handle %d received action(s) before sending %s", n, ts.opts.format(a))
	}

	task := ts.store.Send(envelope[A]{action: a, sent: true})

	ts.mu.Lock()
	tr := ts.lastSent
	ts.lastSent = nil
	ts.trace = append(ts.trace, "send "+ts.opts.format(a))
	ts.mu.Unlock()

	if tr == nil {
		ts.t.Errorf("%s was not reduced", ts.opts.format(a))
		return task
	}
	ts.expect(tr.after, update, "state after sending "+ts.opts.format(a))
	return task
}

// Receive waits for the next action fed back by an effect, asserts it equals
// expected, and asserts the resulting state like Send.
func (ts *TestStore[S, A]) Receive(expected A, update func(*S)) {
	ts.t.Helper()
	tr, ok := ts.next()
	if !ok {
		ts.t.Errorf("expected to receive %s, but received nothing within %v", ts.opts.format(expected), ts.opts.timeout)
		return
	}
	if !assert.Equal(ts.t, expected, tr.action, "received action") {
		return
	}
	ts.expect(tr.after, update, "state after receiving "+ts.opts.format(expected))
}

// ReceiveMatching is Receive for actions that cannot be compared directly,
// such as ones carrying errors.
func (ts *TestStore[S, A]) ReceiveMatching(match func(A) bool, update func(*S)) {
	ts.t.Helper()
	tr, ok := ts.next()
	if !ok {
		ts.t.Errorf("expected to receive a matching action, but received nothing within %v", ts.opts.timeout)
		return
	}
	if !match(tr.action) {
		ts.t.Errorf("received %s, which does not match", ts.opts.format(tr.action))
		return
	}
	ts.expect(tr.after, update, "state after receiving "+ts.opts.format(tr.action))
}

// SkipReceived drops every action received so far, accepting the state they produced.
func (ts *TestStore[S, A]) SkipReceived() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if n := len(ts.received); n > 0 {
		ts.state = ts.received[n-1].after
		for _, tr := range ts.received {
			ts.trace = append(ts.trace, "skip "+ts.opts.format(tr.action))
		}
		ts.received = nil
	}
}

// Finish waits for every effect to complete and asserts nothing was left unreceived.
func (ts *TestStore[S, A]) Finish() {
	ts.t.Helper()
	select {
	case <-ts.store.Idle():
	case <-time.After(ts.opts.timeout):
		ts.t.Errorf("%d effect(s) still running after %v", ts.store.ActiveEffects(), ts.opts.timeout)
	}
	if n := ts.pendingCount(); n > 0 {
		ts.t.Errorf("%d received action(s) were never asserted", n)
	}
}

// Trace lists every send and receive in order, one line each.
func (ts *TestStore[S, A]) Trace() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.trace...)
}

// TraceText is Trace joined into a newline-terminated text, suitable for golden files.
func (ts *TestStore[S, A]) TraceText() []byte {
	return []byte(strings.Join(ts.Trace(), "\n") + "\n")
}

// Close cancels every running effect.
func (ts *TestStore[S, A]) Close() {
	ts.store.Close()
}

func (ts *TestStore[S, A]) expect(actual S, update func(*S), msg string) {
	ts.t.Helper()
	expected := ts.state
	if update != nil {
		update(&expected)
	}
	assert.Equal(ts.t, expected, actual, msg)
	ts.state = actual
}

func (ts *TestStore[S, A]) next() (transition[S, A], bool) {
	deadline := time.After(ts.opts.timeout)
	for {
		ts.mu.Lock()
		if len(ts.received) > 0 {
			tr := ts.received[0]
			ts.received = ts.received[1:]
			ts.trace = append(ts.trace, "receive "+ts.opts.format(tr.action))
			ts.mu.Unlock()
			return tr, true
		}
		ts.mu.Unlock()

		select {
		case <-ts.arrived:
		case <-deadline:
			return transition[S, A]{}, false
		}
	}
}

func (ts *TestStore[S, A]) pendingCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.received)
}

func (ts *TestStore[S, A]) cleanup() {
	ts.store.Close()
	if n := ts.pendingCount(); n > 0 {
		ts.t.Errorf("%d received action(s) were never asserted", n)
	}
}
