package effects

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/on-the-ground/composable_go/dependencies/log"
	"golang.org/x/sync/errgroup"
)

// Hooks observe the runtime. Nil hooks are skipped.
type Hooks struct {
	Started   func(name string)
	Finished  func(name string)
	Cancelled func(n int)
	Failed    func(name string, err error)
}

// Runtime starts effects on behalf of a store.
//
// Applying an effect happens in two phases. Prepare runs synchronously while
// the store holds its lock: it collects the actions to feed back immediately,
// performs cancellations and registers cancellable effects. Start then runs the
// asynchronous work through the supervisor.
type Runtime[A any] struct {
	sv       *supervisor
	registry *Registry
	deliver  func(context.Context, A)
	hooks    Hooks
}

// NewRuntime creates a runtime whose effects run under ctx. deliver must drop
// actions whose ctx is done.
func NewRuntime[A any](ctx context.Context, deliver func(context.Context, A), hooks Hooks) *Runtime[A] {
	return &Runtime[A]{
		sv:       newSupervisor(ctx),
		registry: NewRegistry(),
		deliver:  deliver,
		hooks:    hooks,
	}
}

// Context is the parent of every effect context.
func (r *Runtime[A]) Context() context.Context {
	return r.sv.ctx
}

func (r *Runtime[A]) Registry() *Registry {
	return r.registry
}

// Prepared is the synchronous outcome of applying one or more effects.
type Prepared[A any] struct {
	Actions  []A
	launches []launch
}

// launch is one unit of asynchronous work. run reports whether it ended
// because its context was cancelled.
type launch struct {
	name string
	run  func() bool
}

// Append adds other's actions and asynchronous work after p's.
func (p *Prepared[A]) Append(other Prepared[A]) {
	p.Actions = append(p.Actions, other.Actions...)
	p.launches = append(p.launches, other.launches...)
}

// Empty reports whether nothing needs to be started.
func (p Prepared[A]) Empty() bool {
	return len(p.launches) == 0
}

// Prepare applies the synchronous part of e. Asynchronous work is derived from ctx.
func (r *Runtime[A]) Prepare(ctx context.Context, e Effect[A]) Prepared[A] {
	actions, launches := r.prepare(ctx, e)
	return Prepared[A]{Actions: actions, launches: launches}
}

// Start runs the asynchronous part of p under task.
func (r *Runtime[A]) Start(task *TaskHandle, p Prepared[A]) {
	for _, l := range p.launches {
		task.add()
		r.sv.spawn(l.name, func() {
			cancelled := true
			defer func() { task.finish(cancelled) }()
			cancelled = l.run()
		})
	}
}

// Active is the number of running effect goroutines.
func (r *Runtime[A]) Active() int64 {
	return r.sv.active.Load()
}

// Idle is closed whenever no effect is running.
func (r *Runtime[A]) Idle() <-chan struct{} {
	return r.sv.idleCh()
}

// Close cancels every effect and waits for all of them to return.
func (r *Runtime[A]) Close() {
	r.cancelled(r.registry.CancelAll())
	r.sv.close()
}

func (r *Runtime[A]) prepare(ctx context.Context, e Effect[A]) ([]A, []launch) {
	switch n := e.node.(type) {
	case nil:
		return nil, nil

	case sendNode[A]:
		return append([]A(nil), n.actions...), nil

	case runNode[A]:
		return nil, []launch{r.runLaunch(ctx, n)}

	case mergeNode[A]:
		var actions []A
		var launches []launch
		for _, child := range n.children {
			a, l := r.prepare(ctx, child)
			actions = append(actions, a...)
			launches = append(launches, l...)
		}
		return actions, launches

	case concatNode[A]:
		actions, first := r.prepare(ctx, n.children[0])
		rest := n.children[1:]
		return actions, []launch{{
			name: "concatenate",
			run: func() bool {
				r.runAll(first)
				for _, child := range rest {
					if ctx.Err() != nil {
						return true
					}
					a, l := r.prepare(ctx, child)
					for _, action := range a {
						r.send(ctx, action)
					}
					r.runAll(l)
				}
				return ctx.Err() != nil
			},
		}}

	case cancelNode[A]:
		for _, id := range n.ids {
			r.cancelled(r.registry.Cancel(id))
		}
		return nil, nil

	case cancellableNode[A]:
		if n.cancelInFlight {
			r.cancelled(r.registry.Cancel(n.id))
		}
		cctx, cancel := context.WithCancel(ctx)
		reg := r.registry.register(n.id, cancel)
		actions, launches := r.prepare(cctx, n.inner)
		if len(launches) == 0 {
			r.registry.deregister(n.id, reg)
			cancel()
			return actions, nil
		}
		return actions, []launch{{
			name: fmt.Sprintf("cancellable(%v)", n.id),
			run: func() bool {
				defer cancel()
				defer r.registry.deregister(n.id, reg)
				return r.runAll(launches)
			},
		}}

	default:
		panic(fmt.Sprintf("effects: unknown effect node %T", n))
	}
}

func (r *Runtime[A]) runLaunch(ctx context.Context, n runNode[A]) launch {
	return launch{
		name: n.name,
		run: func() bool {
			if ctx.Err() != nil {
				return true
			}
			if r.hooks.Started != nil {
				r.hooks.Started(n.name)
			}
			if r.hooks.Finished != nil {
				defer r.hooks.Finished(n.name)
			}
			defer r.sv.recoverPanic(n.name)

			err := n.fn(ctx, func(a A) { r.send(ctx, a) })
			if ctx.Err() != nil {
				return true
			}
			if err == nil {
				return false
			}
			if n.catch != nil {
				r.send(ctx, n.catch(err))
				return false
			}
			if r.hooks.Failed != nil {
				r.hooks.Failed(n.name, err)
			}
			log.Effect(ctx, log.LogError, "effect failed without a catch", map[string]interface{}{
				"effect": n.name,
				"error":  err.Error(),
			})
			return false
		},
	}
}

// ReducerPanic carries a panic raised by a reducer while it handled an
// action delivered by an effect. The supervisor never recovers it.
type ReducerPanic struct {
	Value any
}

func (p ReducerPanic) Error() string {
	return fmt.Sprintf("reducer panicked on an action delivered by an effect: %v", p.Value)
}

// send delivers a, marking a panic raised by the store's reducers so that it
// is not mistaken for a panic of the effect itself.
func (r *Runtime[A]) send(ctx context.Context, a A) {
	defer func() {
		if v := recover(); v != nil {
			if p, ok := v.(ReducerPanic); ok {
				panic(p)
			}
			panic(ReducerPanic{Value: v})
		}
	}()
	r.deliver(ctx, a)
}

// runAll runs launches concurrently and waits for all of them. It reports
// whether any of them was cancelled.
func (r *Runtime[A]) runAll(launches []launch) bool {
	switch len(launches) {
	case 0:
		return false
	case 1:
		return launches[0].run()
	}
	var g errgroup.Group
	var cancelled atomic.Bool
	for _, l := range launches {
		g.Go(func() error {
			defer r.sv.recoverPanic(l.name)
			if l.run() {
				cancelled.Store(true)
			}
			return nil
		})
	}
	_ = g.Wait()
	return cancelled.Load()
}

func (r *Runtime[A]) cancelled(n int) {
	if n > 0 && r.hooks.Cancelled != nil {
		r.hooks.Cancelled(n)
	}
}
