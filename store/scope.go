package store

import (
	"github.com/on-the-ground/composable_go/collections/identified"
	"github.com/on-the-ground/composable_go/collections/stack"
	"github.com/on-the-ground/composable_go/effects"
)

type scopeKey struct {
	path any
	id   any
}

// Scope derives a view whose state is toChild(parent state) and whose
// actions are sent to the parent through fromChild. It is valid as long as
// its parent is.
func Scope[S any, A any, C any, CA any](parent *Store[S, A], toChild func(S) C, fromChild func(CA) A) *Store[C, CA] {
	return newScope(parent, nil, func(s S) (C, bool) { return toChild(s), true }, fromChild)
}

// ScopeOptional derives a view into optional child state. It becomes invalid,
// for good, as soon as toChild reports the child absent. Views are cached by
// key: while valid, the same handle is returned for the same key.
func ScopeOptional[S any, A any, C any, CA any](
	parent *Store[S, A],
	key any,
	toChild func(S) (C, bool),
	fromChild func(CA) A,
) *Store[C, CA] {
	return newScope(parent, scopeKey{path: key}, toChild, fromChild)
}

// ScopeElement derives a view into the element with id of an identified
// array. It is cached by (path, id) and becomes invalid once the element is removed.
func ScopeElement[S any, A any, ID comparable, E identified.Identifiable[ID], EA any](
	parent *Store[S, A],
	path any,
	elements func(S) identified.Array[ID, E],
	id ID,
	embed func(ID, EA) A,
) *Store[E, EA] {
	return newScope(parent, scopeKey{path: path, id: id},
		func(s S) (E, bool) { return elements(s).Get(id) },
		func(ea EA) A { return embed(id, ea) },
	)
}

// ScopeStackElement derives a view into the entry with id of a navigation
// stack. It is cached by (path, id) and becomes invalid once the entry is popped.
func ScopeStackElement[S any, A any, E any, EA any](
	parent *Store[S, A],
	path any,
	stackOf func(S) stack.State[E],
	id stack.ElementID,
	embed func(stack.ElementID, EA) A,
) *Store[E, EA] {
	return newScope(parent, scopeKey{path: path, id: id},
		func(s S) (E, bool) { return stackOf(s).Get(id) },
		func(ea EA) A { return embed(id, ea) },
	)
}

// newScope creates a view of parent. With a non-nil key the view is looked
// up in and registered with the parent's cache.
func newScope[S any, A any, C any, CA any](
	parent *Store[S, A],
	key any,
	toChild func(S) (C, bool),
	fromChild func(CA) A,
) *Store[C, CA] {
	var child *Store[C, CA]
	parent.core.withLock(func() {
		if key != nil {
			if cached, ok := parent.children[key].(*Store[C, CA]); ok && cached.valid {
				child = cached
				return
			}
		}

		child = &Store[C, CA]{
			core: parent.core,
			derive: func() (C, bool) {
				ps, ok := parent.stateLocked()
				if !ok {
					var zero C
					return zero, false
				}
				return toChild(ps)
			},
			send: func(ca CA) *effects.TaskHandle {
				return parent.Send(fromChild(ca))
			},
			valid: true,
		}
		if _, ok := child.stateLocked(); !ok || key == nil {
			return
		}
		child.parent = parent
		child.cacheKey = key
		if parent.children == nil {
			parent.children = make(map[any]scopedChild)
		}
		parent.children[key] = child
	})
	return child
}
