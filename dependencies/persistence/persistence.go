package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/dependencies/binding"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrNoContainer = errors.New("no container bound")
)

// Record is anything a Container can store.
type Record interface {
	RecordID() string
}

// Container is the model container consumed by reducers and effects.
//
// Inserts and deletes are staged until Save; Fetch only observes saved records.
type Container[T Record] interface {
	Fetch(ctx context.Context) ([]T, error)
	Insert(ctx context.Context, record T) error
	Delete(ctx context.Context, id string) error
	Save(ctx context.Context) error
}

func bindingKey(name string) string {
	return "composable_go.dependencies.persistence." + name
}

// WithEffectHandler binds c under name.
func WithEffectHandler[T Record](ctx context.Context, name string, c Container[T]) (context.Context, func() context.Context) {
	return binding.WithEffectHandler(ctx, dependencies.NewScopeConfig(1, 1), Bindings(name, c))
}

// Bindings is the binding map WithEffectHandler registers.
func Bindings[T Record](name string, c Container[T]) map[string]any {
	return map[string]any{bindingKey(name): c}
}

// From returns the container bound under name.
func From[T Record](ctx context.Context, name string) (Container[T], error) {
	c, err := binding.Get[Container[T]](ctx, bindingKey(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoContainer, name, err)
	}
	return c, nil
}

// Failing returns a container whose every operation fails with err.
func Failing[T Record](err error) Container[T] {
	return failing[T]{err: err}
}

type failing[T Record] struct {
	err error
}

func (f failing[T]) Fetch(context.Context) ([]T, error)   { return nil, f.err }
func (f failing[T]) Insert(context.Context, T) error      { return f.err }
func (f failing[T]) Delete(context.Context, string) error { return f.err }
func (f failing[T]) Save(context.Context) error           { return f.err }
