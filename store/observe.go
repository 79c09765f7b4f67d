package store

import (
	"reflect"
)

// Equatable is implemented by states that know how to compare themselves.
type Equatable[T any] interface {
	Equals(other T) bool
}

// DefaultEqual uses Equals when T implements Equatable, deep equality otherwise.
func DefaultEqual[T any](a, b T) bool {
	if e, ok := any(a).(Equatable[T]); ok {
		return e.Equals(b)
	}
	return reflect.DeepEqual(a, b)
}

type observer struct {
	id    uint64
	owner any
	// check compares the derived value with the last one it saw and returns
	// the notification to deliver, or nil when nothing changed.
	check func() func()
}

// Observe calls fn with derive(state) every time a send changes it according
// to equal. Notifications run after the store's lock is released, in
// registration order. Observers of a scope are dropped once it becomes invalid.
//
// The returned function stops the observation.
func Observe[S any, A any, V any](s *Store[S, A], derive func(S) V, equal func(V, V) bool, fn func(V)) (cancel func()) {
	if equal == nil {
		equal = DefaultEqual[V]
	}

	var o *observer
	s.core.withLock(func() {
		st, ok := s.stateLocked()
		if !ok {
			return
		}
		last := derive(st)
		s.core.nextObserverID++
		o = &observer{id: s.core.nextObserverID, owner: s}
		o.check = func() func() {
			st, ok := s.stateLocked()
			if !ok {
				return nil
			}
			v := derive(st)
			if equal(last, v) {
				return nil
			}
			last = v
			return func() { fn(v) }
		}
		s.core.observers = append(s.core.observers, o)
	})
	if o == nil {
		return func() {}
	}

	return func() {
		s.core.withLock(func() {
			s.core.removeObserverLocked(o.id)
		})
	}
}

// ObserveState calls fn with the whole state whenever it changes.
func ObserveState[S any, A any](s *Store[S, A], fn func(S)) (cancel func()) {
	return Observe(s, func(st S) S { return st }, DefaultEqual[S], fn)
}

func (c *core) collectChangesLocked() []func() {
	var notify []func()
	for _, o := range c.observers {
		if fn := o.check(); fn != nil {
			notify = append(notify, fn)
		}
	}
	return notify
}

// dropObserversLocked forgets every observer registered on owner.
func (c *core) dropObserversLocked(owner any) {
	kept := c.observers[:0:0]
	for _, o := range c.observers {
		if o.owner != owner {
			kept = append(kept, o)
		}
	}
	c.observers = kept
}

func (c *core) removeObserverLocked(id uint64) {
	for i, o := range c.observers {
		if o.id == id {
			c.observers = append(c.observers[:i:i], c.observers[i+1:]...)
			return
		}
	}
}
