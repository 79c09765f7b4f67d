package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/internal/model"
	"github.com/on-the-ground/composable_go/shared/helper"
)

// Payload defines a key-based lookup payload.
type Payload string

func (bp Payload) PartitionKey() string {
	return string(bp)
}

var ErrNoSuchKey = errors.New("key not found")

// WithEffectHandler registers a resumable, partitionable handler serving the
// given bindings.
//
//   - Keys missing locally are delegated to the scope the handler was
//     registered on, so nested registrations override outer ones.
//   - The returned teardown closes the handler and returns the outer context.
func WithEffectHandler(
	ctx context.Context,
	config dependencies.ScopeConfig,
	bindingMap map[string]any,
) (context.Context, func() context.Context) {
	bh := bindingHandler{
		bindingMap: normalizeBindingMap(bindingMap),
	}
	return dependencies.WithResumablePartitionableHandler[Payload, any](
		ctx,
		config,
		model.HandlerBinding,
		bh.handle,
	)
}

// Effect performs a key-based lookup against the innermost binding scope.
func Effect(ctx context.Context, key string) (any, error) {
	if !dependencies.IsRegistered(ctx, model.HandlerBinding) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchKey, key)
	}
	return dependencies.PerformResumable[Payload, any](ctx, model.HandlerBinding, Payload(key))
}

// Get looks key up and asserts the bound value to T.
func Get[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

func normalizeBindingMap(bm map[string]any) map[string]any {
	if bm == nil {
		bm = make(map[string]any)
	}
	return bm
}

type bindingHandler struct {
	bindingMap map[string]any
}

// handle looks the key up locally and otherwise delegates to the enclosing
// scope, which ctx still points at.
func (bh bindingHandler) handle(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	if v, ok := bh.bindingMap[key]; ok {
		return v, nil
	}
	return Effect(ctx, key)
}
