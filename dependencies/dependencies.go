package dependencies

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/composable_go/internal/handlers"
	"github.com/on-the-ground/composable_go/internal/model"
	"github.com/on-the-ground/composable_go/shared/helper"
	"go.uber.org/zap"
)

type (
	Key           = model.HandlerKey
	ScopeConfig   = model.ScopeConfig
	Partitionable = model.Partitionable
	Result[T any] = handlers.Result[T]
)

var ErrNoHandler = model.ErrNoHandler

func NewScopeConfig(bufferSize, numWorkers int) ScopeConfig {
	return model.NewScopeConfig(bufferSize, numWorkers)
}

// WithResumablePartitionableHandler registers a resumable handler whose requests
// are spread over config.NumWorkers workers by PartitionKey().
//
// Usage:
//
//	ctx, end := WithResumablePartitionableHandler(ctx, config, MyKey, handleFn)
//	defer end()
func WithResumablePartitionableHandler[P Partitionable, R any](
	ctx context.Context,
	config ScopeConfig,
	key Key,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewPartitionableResumableHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, key, handler)
	zap.L().Sugar().Debugf("created resumable handler: handlerId: %v, key: %v", handler.HandlerID, key)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// WithResumableHandler registers a resumable handler served by a single worker,
// so requests are answered one at a time in arrival order.
func WithResumableHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	key Key,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewResumableHandler(ctx, bufferSize, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, key, handler)
	zap.L().Sugar().Debugf("created resumable handler: handlerId: %v, key: %v", handler.HandlerID, key)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// PerformResumable sends payload to the handler registered under key and waits
// for its answer.
func PerformResumable[P any, R any](ctx context.Context, key Key, payload P) (R, error) {
	var zero R
	handler, err := helper.GetTypedValueOf[handlers.ResumableHandler[P, R]](func() (any, error) {
		return handlerOf(ctx, key)
	})
	if err != nil {
		return zero, err
	}

	res, err := handler.Perform(ctx, payload)
	if errors.Is(err, handlers.ErrClosed) {
		return zero, fmt.Errorf("%w: %v closed", ErrNoHandler, key)
	}
	return res, err
}

// WithFireAndForgetHandler registers a handler for one-way payloads such as logs.
func WithFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	key Key,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewFireAndForgetHandler(ctx, bufferSize, handleFn, normalizeTeardown(teardown))
	ctxWith := context.WithValue(ctx, key, handler)
	zap.L().Sugar().Debugf("created fire/forget handler: handlerId: %v, key: %v", handler.HandlerID, key)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// FireAndForget hands payload to the handler registered under key.
// It reports false when no such handler exists.
func FireAndForget[P any](ctx context.Context, key Key, payload P) bool {
	handler, err := helper.GetTypedValueOf[handlers.FireAndForgetHandler[P]](func() (any, error) {
		return handlerOf(ctx, key)
	})
	if err != nil {
		return false
	}
	handler.FireAndForget(ctx, payload)
	return true
}

// IsRegistered reports whether a handler is registered under key.
func IsRegistered(ctx context.Context, key Key) bool {
	return ctx.Value(key) != nil
}

func handlerOf(ctx context.Context, key Key) (any, error) {
	raw := ctx.Value(key)
	if raw == nil {
		return nil, fmt.Errorf("%w: %v", ErrNoHandler, key)
	}
	return raw, nil
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
