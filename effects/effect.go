package effects

import (
	"context"
	"fmt"
)

// Sender delivers an action back into the store that started the effect.
// It blocks until the action has been reduced, and drops the action once the
// effect has been cancelled.
type Sender[A any] func(A)

// Effect describes work a reducer asks the store to perform. The zero value is None.
type Effect[A any] struct {
	node node
}

type node interface {
	effectNode()
}

type sendNode[A any] struct {
	actions []A
}

type runNode[A any] struct {
	name  string
	fn    func(context.Context, Sender[A]) error
	catch func(error) A
}

type mergeNode[A any] struct {
	children []Effect[A]
}

type concatNode[A any] struct {
	children []Effect[A]
}

type cancelNode[A any] struct {
	ids []any
}

type cancellableNode[A any] struct {
	id             any
	cancelInFlight bool
	inner          Effect[A]
}

func (sendNode[A]) effectNode()        {}
func (runNode[A]) effectNode()         {}
func (mergeNode[A]) effectNode()       {}
func (concatNode[A]) effectNode()      {}
func (cancelNode[A]) effectNode()      {}
func (cancellableNode[A]) effectNode() {}

// None performs no work.
func None[A any]() Effect[A] {
	return Effect[A]{}
}

func (e Effect[A]) IsNone() bool {
	return e.node == nil
}

// Send feeds actions back into the store right after the current reducer
// returns, before any asynchronous work starts, in the given order.
func Send[A any](actions ...A) Effect[A] {
	if len(actions) == 0 {
		return None[A]()
	}
	return Effect[A]{node: sendNode[A]{actions: actions}}
}

type RunOption[A any] func(*runNode[A])

// Catch turns a failed run into an action instead of an error diagnostic.
func Catch[A any](fn func(error) A) RunOption[A] {
	return func(n *runNode[A]) {
		n.catch = fn
	}
}

// Named labels the run in diagnostics.
func Named[A any](name string) RunOption[A] {
	return func(n *runNode[A]) {
		n.name = name
	}
}

// Run performs fn asynchronously. fn may send any number of actions and must
// return once ctx is done.
func Run[A any](fn func(ctx context.Context, send Sender[A]) error, opts ...RunOption[A]) Effect[A] {
	n := runNode[A]{name: "run", fn: fn}
	for _, opt := range opts {
		opt(&n)
	}
	return Effect[A]{node: n}
}

// FireAndForget performs fn without feeding anything back.
func FireAndForget[A any](fn func(ctx context.Context) error, opts ...RunOption[A]) Effect[A] {
	return Run(func(ctx context.Context, _ Sender[A]) error {
		return fn(ctx)
	}, opts...)
}

// Result carries either a value or the error that prevented producing it.
type Result[T any] struct {
	Value T
	Err   error
}

func ResultFrom[T any](value T, err error) Result[T] {
	return Result[T]{Value: value, Err: err}
}

// Task runs fn once and feeds its outcome back through toAction, failures included.
func Task[T any, A any](fn func(ctx context.Context) (T, error), toAction func(Result[T]) A) Effect[A] {
	return Run(func(ctx context.Context, send Sender[A]) error {
		res := ResultFrom(fn(ctx))
		if ctx.Err() != nil {
			return nil
		}
		send(toAction(res))
		return nil
	}, Named[A]("task"))
}

// Merge runs effects concurrently.
func Merge[A any](effects ...Effect[A]) Effect[A] {
	children := compact(effects)
	switch len(children) {
	case 0:
		return None[A]()
	case 1:
		return children[0]
	}
	return Effect[A]{node: mergeNode[A]{children: children}}
}

// Concatenate runs effects one after another. Once the running effect is
// cancelled, the remaining ones never start.
func Concatenate[A any](effects ...Effect[A]) Effect[A] {
	children := compact(effects)
	switch len(children) {
	case 0:
		return None[A]()
	case 1:
		return children[0]
	}
	return Effect[A]{node: concatNode[A]{children: children}}
}

// Cancel stops every effect registered under any of ids. It takes effect
// while the reducer's result is being applied, before anything else starts.
//
// Ids must be comparable.
func Cancel[A any](ids ...any) Effect[A] {
	if len(ids) == 0 {
		return None[A]()
	}
	return Effect[A]{node: cancelNode[A]{ids: ids}}
}

// Cancellable registers e under id so a later Cancel(id) stops it. With
// cancelInFlight, effects already registered under id are cancelled first.
//
// Id must be comparable.
func (e Effect[A]) Cancellable(id any, cancelInFlight bool) Effect[A] {
	if e.IsNone() {
		return e
	}
	return Effect[A]{node: cancellableNode[A]{id: id, cancelInFlight: cancelInFlight, inner: e}}
}

// Map converts the actions e produces.
func Map[A any, B any](e Effect[A], f func(A) B) Effect[B] {
	switch n := e.node.(type) {
	case nil:
		return None[B]()
	case sendNode[A]:
		actions := make([]B, len(n.actions))
		for i, a := range n.actions {
			actions[i] = f(a)
		}
		return Effect[B]{node: sendNode[B]{actions: actions}}
	case runNode[A]:
		mapped := runNode[B]{
			name: n.name,
			fn: func(ctx context.Context, send Sender[B]) error {
				return n.fn(ctx, func(a A) { send(f(a)) })
			},
		}
		if n.catch != nil {
			mapped.catch = func(err error) B { return f(n.catch(err)) }
		}
		return Effect[B]{node: mapped}
	case mergeNode[A]:
		return Effect[B]{node: mergeNode[B]{children: mapChildren(n.children, f)}}
	case concatNode[A]:
		return Effect[B]{node: concatNode[B]{children: mapChildren(n.children, f)}}
	case cancelNode[A]:
		return Effect[B]{node: cancelNode[B]{ids: n.ids}}
	case cancellableNode[A]:
		return Effect[B]{node: cancellableNode[B]{
			id:             n.id,
			cancelInFlight: n.cancelInFlight,
			inner:          Map(n.inner, f),
		}}
	default:
		panic(fmt.Sprintf("effects: unknown effect node %T", n))
	}
}

func mapChildren[A any, B any](children []Effect[A], f func(A) B) []Effect[B] {
	out := make([]Effect[B], len(children))
	for i, c := range children {
		out[i] = Map(c, f)
	}
	return out
}

func compact[A any](effects []Effect[A]) []Effect[A] {
	out := make([]Effect[A], 0, len(effects))
	for _, e := range effects {
		if !e.IsNone() {
			out = append(out, e)
		}
	}
	return out
}
