// Package stack provides the navigation stack collection: an ordered list of
// states keyed by generated element ids.
//
// Like identified.Array, a State is copied on every mutation and empty stacks
// are stored as nil.
package stack

import (
	"fmt"
)

type State[E any] struct {
	ids   []ElementID
	elems map[ElementID]E
}

// Of pushes elems onto an empty stack in order.
func Of[E any](gen Generator, elems ...E) State[E] {
	var s State[E]
	for _, e := range elems {
		s.Push(gen, e)
	}
	return s
}

func (s State[E]) Len() int {
	return len(s.ids)
}

func (s State[E]) IDs() []ElementID {
	return append([]ElementID(nil), s.ids...)
}

func (s State[E]) Elements() []E {
	out := make([]E, len(s.ids))
	for i, id := range s.ids {
		out[i] = s.elems[id]
	}
	return out
}

// At panics when i is out of range.
func (s State[E]) At(i int) (ElementID, E) {
	id := s.ids[i]
	return id, s.elems[id]
}

// Last reports false on an empty stack.
func (s State[E]) Last() (ElementID, E, bool) {
	if s.Len() == 0 {
		var zero E
		return 0, zero, false
	}
	id, e := s.At(s.Len() - 1)
	return id, e, true
}

func (s State[E]) Get(id ElementID) (E, bool) {
	e, ok := s.elems[id]
	return e, ok
}

func (s State[E]) Contains(id ElementID) bool {
	_, ok := s.elems[id]
	return ok
}

func (s State[E]) Index(id ElementID) (int, bool) {
	for i, candidate := range s.ids {
		if candidate == id {
			return i, true
		}
	}
	return 0, false
}

// Push appends e under a fresh id from gen.
func (s *State[E]) Push(gen Generator, e E) ElementID {
	id := gen.Next()
	s.Append(id, e)
	return id
}

// Append adds e under an id issued earlier, as when replaying a Push action.
// It panics when id is already on the stack.
func (s *State[E]) Append(id ElementID, e E) {
	if s.Contains(id) {
		panic(fmt.Sprintf("stack: duplicate element id %d", id))
	}
	ids, m := s.clone(1)
	ids = append(ids, id)
	m[id] = e
	s.assign(ids, m)
}

// Insert places e at index at under a fresh id.
func (s *State[E]) Insert(gen Generator, at int, e E) ElementID {
	if at < 0 || at > s.Len() {
		panic(fmt.Sprintf("stack: insert index %d out of range [0, %d]", at, s.Len()))
	}
	id := gen.Next()
	ids, m := s.clone(1)
	ids = append(ids, id)
	copy(ids[at+1:], ids[at:])
	ids[at] = id
	m[id] = e
	s.assign(ids, m)
	return id
}

// ReplaceRange replaces entries [from, to) with elems, each under a fresh id.
func (s *State[E]) ReplaceRange(gen Generator, from, to int, elems []E) []ElementID {
	if from < 0 || to > s.Len() || from > to {
		panic(fmt.Sprintf("stack: replace range [%d, %d) out of range [0, %d]", from, to, s.Len()))
	}
	ids := make([]ElementID, 0, s.Len()-(to-from)+len(elems))
	m := make(map[ElementID]E, cap(ids))
	for _, id := range s.ids[:from] {
		ids = append(ids, id)
		m[id] = s.elems[id]
	}
	fresh := make([]ElementID, 0, len(elems))
	for _, e := range elems {
		id := gen.Next()
		fresh = append(fresh, id)
		ids = append(ids, id)
		m[id] = e
	}
	for _, id := range s.ids[to:] {
		ids = append(ids, id)
		m[id] = s.elems[id]
	}
	s.assign(ids, m)
	return fresh
}

// PopLast removes the top entry.
func (s *State[E]) PopLast() (ElementID, E, bool) {
	id, e, ok := s.Last()
	if ok {
		s.truncate(s.Len() - 1)
	}
	return id, e, ok
}

// PopTo removes every entry after id, keeping id on top.
func (s *State[E]) PopTo(id ElementID) bool {
	i, ok := s.Index(id)
	if !ok {
		return false
	}
	s.truncate(i + 1)
	return true
}

// PopFrom removes id and every entry after it.
func (s *State[E]) PopFrom(id ElementID) bool {
	i, ok := s.Index(id)
	if !ok {
		return false
	}
	s.truncate(i)
	return true
}

// Update applies fn to a copy of the entry with id and stores the result.
func (s *State[E]) Update(id ElementID, fn func(*E)) bool {
	e, ok := s.elems[id]
	if !ok {
		return false
	}
	fn(&e)
	ids, m := s.clone(0)
	m[id] = e
	s.assign(ids, m)
	return true
}

// EqualFunc reports whether both stacks hold the same ids in the same order
// with pairwise equal elements.
func (s State[E]) EqualFunc(other State[E], eq func(x, y E) bool) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i, id := range s.ids {
		if other.ids[i] != id || !eq(s.elems[id], other.elems[id]) {
			return false
		}
	}
	return true
}

func (s State[E]) String() string {
	out := "["
	for i, id := range s.ids {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("(%d, %v)", id, s.elems[id])
	}
	return out + "]"
}

func (s *State[E]) truncate(n int) {
	ids := make([]ElementID, n)
	copy(ids, s.ids[:n])
	m := make(map[ElementID]E, n)
	for _, id := range ids {
		m[id] = s.elems[id]
	}
	s.assign(ids, m)
}

func (s State[E]) clone(extra int) ([]ElementID, map[ElementID]E) {
	ids := make([]ElementID, len(s.ids), len(s.ids)+extra)
	copy(ids, s.ids)
	m := make(map[ElementID]E, len(s.elems)+extra)
	for k, v := range s.elems {
		m[k] = v
	}
	return ids, m
}

func (s *State[E]) assign(ids []ElementID, m map[ElementID]E) {
	if len(ids) == 0 {
		s.ids, s.elems = nil, nil
		return
	}
	s.ids, s.elems = ids, m
}
