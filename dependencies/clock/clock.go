package clock

import (
	"context"
	"time"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/dependencies/binding"
	"github.com/rickb777/date/v2/timespan"
)

// Clock is the time source effects suspend on.
type Clock interface {
	Now() time.Time
	// Sleep blocks until d has elapsed or ctx is done, returning ctx.Err() in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
	// Ticker emits every d until ctx is done. Consumers must also watch ctx,
	// the channel is not guaranteed to be closed.
	Ticker(ctx context.Context, d time.Duration) <-chan time.Time
}

type TimeSpan = timespan.TimeSpan

// Span is the time span between from and to.
func Span(from, to time.Time) TimeSpan {
	return timespan.BetweenTimes(from, to)
}

// Since is the span from t up to c.Now().
func Since(c Clock, t time.Time) TimeSpan {
	return Span(t, c.Now())
}

const bindingKey = "composable_go.dependencies.clock"

// WithEffectHandler binds c as the clock of every effect run under the returned context.
func WithEffectHandler(ctx context.Context, c Clock) (context.Context, func() context.Context) {
	return binding.WithEffectHandler(ctx, dependencies.NewScopeConfig(1, 1), Bindings(c))
}

// Bindings is the binding map WithEffectHandler registers, for callers that
// bind several dependencies through one handler.
func Bindings(c Clock) map[string]any {
	return map[string]any{bindingKey: c}
}

// From returns the bound clock, or the live one if none is bound.
func From(ctx context.Context) Clock {
	if c, err := binding.Get[Clock](ctx, bindingKey); err == nil {
		return c
	}
	return Live()
}

// Live returns the wall clock.
func Live() Clock {
	return liveClock{}
}

type liveClock struct{}

func (liveClock) Now() time.Time {
	return time.Now()
}

func (liveClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (liveClock) Ticker(ctx context.Context, d time.Duration) <-chan time.Time {
	out := make(chan time.Time)
	ready := make(chan struct{})
	go func() {
		close(ready)
		defer close(out)
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				select {
				case out <- t:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	<-ready
	return out
}
