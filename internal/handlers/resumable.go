package handlers

import (
	"context"

	"github.com/on-the-ground/composable_go/internal/model"
)

func NewResumableHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		handlerScope: newHandlerScope(
			NewSingleLane(ctx, bufferSize, resume(handleFn)),
			ctx.Done(),
			func() {
				cancelFn()
				teardown()
			},
		),
	}
}

func NewPartitionableResumableHandler[P model.Partitionable, R any](
	ctx context.Context,
	config model.ScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		handlerScope: newHandlerScope(
			NewPartitionedLanes(ctx, config.NumWorkers, config.BufferSize, resume(handleFn)),
			ctx.Done(),
			func() {
				cancelFn()
				teardown()
			},
		),
	}
}

// resume answers on the request's own buffered channel, so the worker never
// blocks on a caller that stopped waiting.
func resume[P any, R any](handleFn func(context.Context, P) (R, error)) func(context.Context, ResumableMessage[P, R]) {
	return func(ctx context.Context, msg ResumableMessage[P, R]) {
		msg.ResumeCh <- ResultFrom(handleFn(ctx, msg.Payload))
	}
}

type ResumableHandler[P any, R any] struct {
	*handlerScope[ResumableMessage[P, R]]
}

// Perform hands payload to the handler and waits for its result. It returns
// ErrClosed when the handler is closed before answering, and ctx.Err() when
// ctx is done first.
func (rh ResumableHandler[P, R]) Perform(ctx context.Context, payload P) (R, error) {
	var zero R
	msg := ResumableMessage[P, R]{
		Payload:  payload,
		ResumeCh: make(chan Result[R], 1),
	}

	select {
	case <-rh.done:
		logDropped(rh.HandlerID, payload)
		return zero, ErrClosed
	default:
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-rh.done:
		logDropped(rh.HandlerID, payload)
		return zero, ErrClosed
	case rh.dispatcher.Lane(msg) <- msg:
	}

	select {
	case res := <-msg.ResumeCh:
		return res.Value, res.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-rh.done:
		return zero, ErrClosed
	}
}

// Result is the outcome of a resumable request.
type Result[T any] struct {
	Value T
	Err   error
}

func ResultFrom[R any](res R, err error) Result[R] {
	return Result[R]{Value: res, Err: err}
}

var _ model.Partitionable = ResumableMessage[any, any]{}

type ResumableMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan Result[R]
}

func (rm ResumableMessage[P, R]) PartitionKey() string {
	if p, ok := any(rm.Payload).(model.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
