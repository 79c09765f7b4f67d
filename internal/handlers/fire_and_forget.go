package handlers

import (
	"context"
)

func NewFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	return FireAndForgetHandler[P]{
		handlerScope: newHandlerScope(
			NewSingleLane(ctx, bufferSize, handleFn),
			ctx.Done(),
			func() {
				teardown()
				cancelFn()
			},
		),
	}
}

type FireAndForgetHandler[P any] struct {
	*handlerScope[P]
}

// FireAndForget queues payload. It is dropped when ctx is done or the
// handler is closed first.
func (fh FireAndForgetHandler[P]) FireAndForget(ctx context.Context, payload P) {
	select {
	case <-fh.done:
		logDropped(fh.HandlerID, payload)
		return
	default:
	}

	select {
	case <-ctx.Done():
	case <-fh.done:
		logDropped(fh.HandlerID, payload)
	case fh.dispatcher.Lane(payload) <- payload:
	}
}
