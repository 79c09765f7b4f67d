// Package reducer composes reducers: functions that evolve a state in place
// for an action and describe the effects to run next.
//
// Reducers must not block. Work that waits belongs in the returned effect.
// The context passed to Reduce carries the store's dependencies and the
// scope path used to build cancellation identities.
package reducer

import (
	"context"

	"github.com/on-the-ground/composable_go/effects"
)

type Reducer[S any, A any] interface {
	Reduce(ctx context.Context, state *S, action A) effects.Effect[A]
}

// Func adapts a function to Reducer.
type Func[S any, A any] func(ctx context.Context, state *S, action A) effects.Effect[A]

func (f Func[S, A]) Reduce(ctx context.Context, state *S, action A) effects.Effect[A] {
	return f(ctx, state, action)
}

// Empty leaves state untouched and performs no work.
func Empty[S any, A any]() Reducer[S, A] {
	return Func[S, A](func(context.Context, *S, A) effects.Effect[A] {
		return effects.None[A]()
	})
}

// Combine runs reducers in order against the same state and action and
// merges their effects in the same order.
func Combine[S any, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	return Func[S, A](func(ctx context.Context, state *S, action A) effects.Effect[A] {
		effs := make([]effects.Effect[A], 0, len(reducers))
		for _, r := range reducers {
			effs = append(effs, r.Reduce(ctx, state, action))
		}
		return effects.Merge(effs...)
	})
}
