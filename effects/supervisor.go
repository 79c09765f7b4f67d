package effects

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/composable_go/dependencies/log"
)

// supervisor manages the goroutines effects run on.
//
//   - Each goroutine runs under the context it was spawned with.
//   - Panics of effects are recovered and logged. A ReducerPanic is raised
//     again: a reducer that breaks an invariant must crash the program.
//   - Close cancels the root context and joins every goroutine.
type supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	active atomic.Int64
	idle   chan struct{}
	mu     sync.Mutex
}

func newSupervisor(parent context.Context) *supervisor {
	ctx, cancel := context.WithCancel(parent)
	return &supervisor{
		ctx:    ctx,
		cancel: cancel,
		idle:   closedChan(),
	}
}

// spawn runs fn in its own goroutine and returns once it has started.
func (s *supervisor) spawn(name string, fn func()) {
	s.mu.Lock()
	if s.active.Add(1) == 1 {
		s.idle = make(chan struct{})
	}
	s.mu.Unlock()
	s.wg.Add(1)

	ready := make(chan struct{})
	go func() {
		defer s.done()
		defer s.recoverPanic(name)
		close(ready)
		fn()
	}()
	<-ready
}

func (s *supervisor) done() {
	s.mu.Lock()
	if s.active.Add(-1) == 0 {
		close(s.idle)
	}
	s.mu.Unlock()
	s.wg.Done()
}

func (s *supervisor) recoverPanic(name string) {
	if r := recover(); r != nil {
		if p, ok := r.(ReducerPanic); ok {
			panic(p)
		}
		log.Effect(s.ctx, log.LogError, "panic in effect", map[string]interface{}{
			"effect": name,
			"error":  r,
		})
	}
}

// idleCh is closed whenever no goroutine is running.
func (s *supervisor) idleCh() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle
}

func (s *supervisor) close() {
	s.cancel()
	log.Effect(s.ctx, log.LogDebug, "waiting for all effects to finish", map[string]interface{}{
		"active": s.active.Load(),
	})
	s.wg.Wait()
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
