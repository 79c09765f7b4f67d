package handlers

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned for requests made to a handler after Close.
var ErrClosed = errors.New("handler closed")

type handlerScope[T any] struct {
	HandlerID  string
	dispatcher Dispatcher[T]
	// done is closed once the scope's workers are told to stop.
	done      <-chan struct{}
	closeFn   func()
	closeOnce sync.Once
}

func (hs *handlerScope[T]) Close() {
	hs.closeOnce.Do(func() {
		hs.closeFn()
		zap.L().Debug("handler scope closed", zap.String("handlerId", hs.HandlerID))
	})
}

// Done is closed once the handler stops accepting payloads.
func (hs *handlerScope[T]) Done() <-chan struct{} {
	return hs.done
}

func newHandlerScope[T any](
	dispatcher Dispatcher[T],
	done <-chan struct{},
	teardown func(),
) *handlerScope[T] {
	return &handlerScope[T]{
		HandlerID:  uuid.New().String(),
		dispatcher: dispatcher,
		done:       done,
		closeFn:    teardown,
	}
}

func logDropped(handlerID string, payload any) {
	zap.L().Debug(
		"payload dropped by closed handler",
		zap.String("handlerId", handlerID),
		zap.Any("payload", payload),
	)
}
