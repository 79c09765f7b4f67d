package reducer_test

import (
	"context"
	"strconv"
	"time"

	"github.com/on-the-ground/composable_go/collections/identified"
	"github.com/on-the-ground/composable_go/collections/stack"
	"github.com/on-the-ground/composable_go/dependencies/clock"
	"github.com/on-the-ground/composable_go/effects"
	"github.com/on-the-ground/composable_go/reducer"
)

// timer is a feature that ticks every second once started, and may present
// another timer inside itself.
type timer struct {
	Name  string
	Ticks int
	Inner *timer
}

func (t timer) ID() string          { return t.Name }
func (t timer) PresentationID() any { return t.Name }

type timerAction interface{ isTimerAction() }

type (
	start        struct{}
	tick         struct{}
	presentInner struct{}
	dismissInner struct{}
	inner        struct{ Action timerAction }
)

func (start) isTimerAction()        {}
func (tick) isTimerAction()         {}
func (presentInner) isTimerAction() {}
func (dismissInner) isTimerAction() {}
func (inner) isTimerAction()        {}

func timerFeature() reducer.Reducer[timer, timerAction] {
	base := reducer.Func[timer, timerAction](func(ctx context.Context, s *timer, a timerAction) effects.Effect[timerAction] {
		switch a.(type) {
		case start:
			return effects.Run(func(ctx context.Context, send effects.Sender[timerAction]) error {
				ticks := clock.From(ctx).Ticker(ctx, time.Second)
				for {
					select {
					case <-ctx.Done():
						return nil
					case <-ticks:
						send(tick{})
					}
				}
			})
		case tick:
			s.Ticks++
		case presentInner:
			s.Inner = &timer{Name: s.Name + "/inner"}
		case dismissInner:
			s.Inner = nil
		}
		return effects.None[timerAction]()
	})

	var feature reducer.Reducer[timer, timerAction]
	self := reducer.Func[timer, timerAction](func(ctx context.Context, s *timer, a timerAction) effects.Effect[timerAction] {
		return feature.Reduce(ctx, s, a)
	})
	feature = reducer.IfLet(
		base,
		reducer.Field(func(s *timer) **timer { return &s.Inner }),
		reducer.Prism[timerAction, timerAction]{
			Extract: func(a timerAction) (timerAction, bool) {
				in, ok := a.(inner)
				return in.Action, ok
			},
			Embed: func(a timerAction) timerAction { return inner{Action: a} },
		},
		self,
	)
	return feature
}

type screen struct {
	Timer  *timer
	Timers identified.Array[string, timer]
	Path   stack.State[timer]
	Log    []string
}

type action interface{ isAction() }

type (
	timerAct  struct{ Action timerAction }
	timersAct struct {
		ID     string
		Action timerAction
	}
	pathAct      struct{ Action stack.Action[timer, timerAction] }
	presentTimer struct{ Name string }
	dismissTimer struct{}
	removeTimer  struct{ ID string }
)

func (timerAct) isAction()     {}
func (timersAct) isAction()    {}
func (pathAct) isAction()      {}
func (presentTimer) isAction() {}
func (dismissTimer) isAction() {}
func (removeTimer) isAction()  {}

func screenCore() reducer.Reducer[screen, action] {
	return reducer.Func[screen, action](func(ctx context.Context, s *screen, a action) effects.Effect[action] {
		switch a := a.(type) {
		case presentTimer:
			s.Timer = &timer{Name: a.Name}
		case dismissTimer:
			s.Timer = nil
		case removeTimer:
			s.Timers.Remove(a.ID)
		case timerAct:
			if _, ok := a.Action.(tick); ok && s.Timer != nil {
				s.Log = append(s.Log, "parent saw "+strconv.Itoa(s.Timer.Ticks)+" ticks")
			}
		case pathAct:
			if _, ok := a.Action.(stack.PopFrom[timer, timerAction]); ok {
				s.Log = append(s.Log, "popping with "+strconv.Itoa(s.Path.Len())+" on stack")
			}
		}
		return effects.None[action]()
	})
}

func screenFeature() reducer.Reducer[screen, action] {
	child := timerFeature()
	withTimer := reducer.IfLet(
		screenCore(),
		reducer.Field(func(s *screen) **timer { return &s.Timer }),
		reducer.Prism[action, timerAction]{
			Extract: func(a action) (timerAction, bool) {
				t, ok := a.(timerAct)
				return t.Action, ok
			},
			Embed: func(a timerAction) action { return timerAct{Action: a} },
		},
		child,
	)
	withTimers := reducer.ForEach(
		withTimer,
		reducer.Field(func(s *screen) *identified.Array[string, timer] { return &s.Timers }),
		reducer.Prism[action, reducer.ElementAction[string, timerAction]]{
			Extract: func(a action) (reducer.ElementAction[string, timerAction], bool) {
				t, ok := a.(timersAct)
				return reducer.ElementAction[string, timerAction]{ID: t.ID, Action: t.Action}, ok
			},
			Embed: func(ea reducer.ElementAction[string, timerAction]) action {
				return timersAct{ID: ea.ID, Action: ea.Action}
			},
		},
		child,
	)
	return reducer.ForEachStack(
		withTimers,
		reducer.Field(func(s *screen) *stack.State[timer] { return &s.Path }),
		reducer.Prism[action, stack.Action[timer, timerAction]]{
			Extract: func(a action) (stack.Action[timer, timerAction], bool) {
				p, ok := a.(pathAct)
				return p.Action, ok
			},
			Embed: func(a stack.Action[timer, timerAction]) action { return pathAct{Action: a} },
		},
		child,
	)
}
