// Package identified provides an ordered collection of uniquely identified elements.
//
// Every mutation copies the backing storage, so an Array value captured before
// a mutation keeps observing the old contents. Empty arrays are always stored
// as nil, which keeps reflect.DeepEqual-based comparisons stable.
package identified

import (
	"fmt"
	"sort"
)

// Identifiable is implemented by elements that carry their own stable id.
type Identifiable[ID comparable] interface {
	ID() ID
}

type Array[ID comparable, E Identifiable[ID]] struct {
	ids   []ID
	elems map[ID]E
	pos   map[ID]int
}

// New builds an array from elems, keeping only the first occurrence of each id.
func New[ID comparable, E Identifiable[ID]](elems ...E) Array[ID, E] {
	var a Array[ID, E]
	ids := make([]ID, 0, len(elems))
	m := make(map[ID]E, len(elems))
	for _, e := range elems {
		id := e.ID()
		if _, dup := m[id]; dup {
			continue
		}
		ids = append(ids, id)
		m[id] = e
	}
	a.assign(ids, m)
	return a
}

// FromUnchecked builds an array from elems the caller asserts to be unique.
// It panics on a duplicate id.
func FromUnchecked[ID comparable, E Identifiable[ID]](elems ...E) Array[ID, E] {
	var a Array[ID, E]
	ids := make([]ID, 0, len(elems))
	m := make(map[ID]E, len(elems))
	for _, e := range elems {
		id := e.ID()
		if _, dup := m[id]; dup {
			panic(fmt.Sprintf("identified: duplicate id %v", id))
		}
		ids = append(ids, id)
		m[id] = e
	}
	a.assign(ids, m)
	return a
}

func (a Array[ID, E]) Len() int {
	return len(a.ids)
}

func (a Array[ID, E]) IDs() []ID {
	return append([]ID(nil), a.ids...)
}

func (a Array[ID, E]) Elements() []E {
	out := make([]E, len(a.ids))
	for i, id := range a.ids {
		out[i] = a.elems[id]
	}
	return out
}

// At panics when i is out of range.
func (a Array[ID, E]) At(i int) E {
	return a.elems[a.ids[i]]
}

func (a Array[ID, E]) Get(id ID) (E, bool) {
	e, ok := a.elems[id]
	return e, ok
}

func (a Array[ID, E]) Index(id ID) (int, bool) {
	i, ok := a.pos[id]
	return i, ok
}

func (a Array[ID, E]) Contains(id ID) bool {
	_, ok := a.elems[id]
	return ok
}

// Append adds e at the end. It reports false, leaving a untouched, when e's id is already present.
func (a *Array[ID, E]) Append(e E) bool {
	return a.Insert(e, a.Len())
}

// Insert places e at index at. It reports false when e's id is already present.
func (a *Array[ID, E]) Insert(e E, at int) bool {
	id := e.ID()
	if a.Contains(id) {
		return false
	}
	if at < 0 || at > a.Len() {
		panic(fmt.Sprintf("identified: insert index %d out of range [0, %d]", at, a.Len()))
	}
	ids, m := a.clone(1)
	ids = append(ids, id)
	copy(ids[at+1:], ids[at:])
	ids[at] = id
	m[id] = e
	a.assign(ids, m)
	return true
}

// Set replaces the element with e's id in place, or appends e.
func (a *Array[ID, E]) Set(e E) {
	id := e.ID()
	if !a.Contains(id) {
		a.Append(e)
		return
	}
	ids, m := a.clone(0)
	m[id] = e
	a.assign(ids, m)
}

// Update applies fn to a copy of the element with id and stores the result.
// fn must not change the element's id.
func (a *Array[ID, E]) Update(id ID, fn func(*E)) bool {
	e, ok := a.elems[id]
	if !ok {
		return false
	}
	fn(&e)
	if e.ID() != id {
		panic(fmt.Sprintf("identified: update changed id %v to %v", id, e.ID()))
	}
	ids, m := a.clone(0)
	m[id] = e
	a.assign(ids, m)
	return true
}

// Remove deletes the element with id, preserving the order of the rest.
func (a *Array[ID, E]) Remove(id ID) (E, bool) {
	i, ok := a.pos[id]
	if !ok {
		var zero E
		return zero, false
	}
	return a.RemoveAt(i), true
}

// RemoveAt panics when i is out of range.
func (a *Array[ID, E]) RemoveAt(i int) E {
	id := a.ids[i]
	removed := a.elems[id]
	ids, m := a.clone(0)
	ids = append(ids[:i], ids[i+1:]...)
	delete(m, id)
	a.assign(ids, m)
	return removed
}

// RemoveOffsets removes the elements at the given positions. Out of range
// and repeated offsets are ignored.
func (a *Array[ID, E]) RemoveOffsets(offsets ...int) {
	drop := make(map[int]struct{}, len(offsets))
	for _, o := range offsets {
		if o >= 0 && o < a.Len() {
			drop[o] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return
	}
	ids := make([]ID, 0, a.Len()-len(drop))
	m := make(map[ID]E, a.Len()-len(drop))
	for i, id := range a.ids {
		if _, ok := drop[i]; ok {
			continue
		}
		ids = append(ids, id)
		m[id] = a.elems[id]
	}
	a.assign(ids, m)
}

// Move moves the element at from so that it ends up at index to.
func (a *Array[ID, E]) Move(from, to int) {
	if from == to {
		return
	}
	if from < 0 || from >= a.Len() || to < 0 || to >= a.Len() {
		panic(fmt.Sprintf("identified: move %d -> %d out of range [0, %d)", from, to, a.Len()))
	}
	ids, m := a.clone(0)
	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]ID{id}, ids[to:]...)...)
	a.assign(ids, m)
}

// Sort orders elements by less, keeping equal elements in their current order.
func (a *Array[ID, E]) Sort(less func(x, y E) bool) {
	ids, m := a.clone(0)
	sort.SliceStable(ids, func(i, j int) bool {
		return less(m[ids[i]], m[ids[j]])
	})
	a.assign(ids, m)
}

// EqualFunc reports whether both arrays hold the same ids in the same order
// with pairwise equal elements.
func (a Array[ID, E]) EqualFunc(other Array[ID, E], eq func(x, y E) bool) bool {
	if a.Len() != other.Len() {
		return false
	}
	for i, id := range a.ids {
		if other.ids[i] != id || !eq(a.elems[id], other.elems[id]) {
			return false
		}
	}
	return true
}

func (a Array[ID, E]) String() string {
	return fmt.Sprint(a.Elements())
}

func (a Array[ID, E]) clone(extra int) ([]ID, map[ID]E) {
	ids := make([]ID, len(a.ids), len(a.ids)+extra)
	copy(ids, a.ids)
	m := make(map[ID]E, len(a.elems)+extra)
	for k, v := range a.elems {
		m[k] = v
	}
	return ids, m
}

func (a *Array[ID, E]) assign(ids []ID, m map[ID]E) {
	if len(ids) == 0 {
		a.ids, a.elems, a.pos = nil, nil, nil
		return
	}
	pos := make(map[ID]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	a.ids, a.elems, a.pos = ids, m, pos
}
