package handlers

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/on-the-ground/composable_go/internal/model"
)

// Dispatcher hands messages to worker lanes. Each lane is drained by one
// goroutine, so messages sent to the same lane are handled in order. Lanes
// are never closed: senders give up once the workers' context is done.
type Dispatcher[T any] interface {
	Lane(msg T) chan<- T
}

type lanes[T any] struct {
	chs   []chan T
	route func(T) int
}

func (l lanes[T]) Lane(msg T) chan<- T {
	return l.chs[l.route(msg)]
}

// NewSingleLane starts one worker. Every message is handled in send order.
func NewSingleLane[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	return startLanes(ctx, 1, bufferSize, handleFn, func(T) int { return 0 })
}

// NewPartitionedLanes starts numWorkers workers. Messages sharing a partition
// key always land on the same lane.
func NewPartitionedLanes[T model.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) Dispatcher[T] {
	return startLanes(ctx, numWorkers, bufferSize, handleFn, func(msg T) int {
		return IndexOf(msg.PartitionKey(), numWorkers)
	})
}

// startLanes returns once every worker is running. Workers exit on ctx.Done.
func startLanes[T any](
	ctx context.Context,
	n, bufferSize int,
	handleFn func(context.Context, T),
	route func(T) int,
) lanes[T] {
	l := lanes[T]{chs: make([]chan T, n), route: route}
	var running sync.WaitGroup
	running.Add(n)
	for i := range l.chs {
		ch := make(chan T, bufferSize)
		l.chs[i] = ch
		go func() {
			running.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-ch:
					handleFn(ctx, msg)
				}
			}
		}()
	}
	running.Wait()
	return l
}

// IndexOf maps key onto one of n slots.
func IndexOf(key string, n int) int {
	switch n {
	case 0:
		panic("number of partitions cannot be 0")
	case 1:
		return 0
	default:
		return int(xxhash.Sum64String(key) % uint64(n))
	}
}
