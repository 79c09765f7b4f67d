package reducer

import (
	"context"
	"fmt"
	"reflect"
	"sync/atomic"
)

var instances atomic.Uint64

func nextInstance() uint64 {
	return instances.Add(1)
}

type scopePathKey struct{}

// scopePath identifies where in the reducer tree ctx is, e.g. "/3:7/5:memo-1".
// Operators that embed children per element extend it, so identities built
// below an element never collide with those of its siblings.
func scopePath(ctx context.Context) string {
	path, _ := ctx.Value(scopePathKey{}).(string)
	return path
}

func withScopeSegment(ctx context.Context, instance uint64, id any) context.Context {
	return context.WithValue(ctx, scopePathKey{}, fmt.Sprintf("%s/%d:%v", scopePath(ctx), instance, id))
}

// Presentable lets a presented child distinguish itself from another
// presentation of the same type, e.g. a detail sheet for a different record.
type Presentable interface {
	PresentationID() any
}

// PresentationID is the cancellation id of effects started by a child presented through IfLet.
// The child's Presentable id, if any, must be comparable.
type PresentationID struct {
	Path     string
	Instance uint64
	Type     reflect.Type
	ID       any
}

// ElementID is the cancellation id of effects started by one element of a ForEach collection.
type ElementID struct {
	Path     string
	Instance uint64
	ID       any
}

// LocalID is a cancellation id scoped to where in the reducer tree it is built.
type LocalID struct {
	Path string
	ID   any
}

// Local wraps id so it only matches effects built at the same place in the
// reducer tree, e.g. one element of a ForEachStack. id must be comparable.
func Local(ctx context.Context, id any) LocalID {
	return LocalID{Path: scopePath(ctx), ID: id}
}

func (id PresentationID) segment() string {
	if id.ID == nil {
		return fmt.Sprint(id.Type)
	}
	return fmt.Sprintf("%v#%v", id.Type, id.ID)
}

func presentationIDOf[C any](ctx context.Context, instance uint64, child C) PresentationID {
	id := PresentationID{
		Path:     scopePath(ctx),
		Instance: instance,
		Type:     reflect.TypeOf(any(child)),
	}
	if p, ok := any(child).(Presentable); ok {
		id.ID = p.PresentationID()
	}
	return id
}

func elementIDOf(ctx context.Context, instance uint64, id any) ElementID {
	return ElementID{Path: scopePath(ctx), Instance: instance, ID: id}
}

// present reports whether p holds a child: non-nil, and not a nil interface.
func present[C any](p *C) bool {
	return p != nil && any(*p) != nil
}
