package clock

import (
	"context"
	"sort"
	"sync"
	"time"
)

// TestClock is a virtual clock that only moves when Advance is called.
//
//   - Sleepers wake once the virtual time reaches their deadline.
//   - Ticks are handed to the ticker's consumer one at a time; Advance blocks
//     until each due tick has been received (or the ticker's context is done),
//     so a test observes every tick in order.
type TestClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []*waiter
	changed chan struct{}
}

type waiter struct {
	at     time.Time
	period time.Duration // zero for sleepers
	wake   chan struct{}
	tick   chan time.Time
	ctx    context.Context
}

// NewTestClock starts at the given instant.
func NewTestClock(start time.Time) *TestClock {
	return &TestClock{
		now:     start,
		changed: make(chan struct{}),
	}
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *TestClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	c.mu.Lock()
	w := &waiter{at: c.now.Add(d), wake: make(chan struct{}), ctx: ctx}
	c.addLocked(w)
	c.mu.Unlock()

	select {
	case <-w.wake:
		return nil
	case <-ctx.Done():
		c.remove(w)
		return ctx.Err()
	}
}

func (c *TestClock) Ticker(ctx context.Context, d time.Duration) <-chan time.Time {
	if d <= 0 {
		panic("clock: non-positive ticker period")
	}
	out := make(chan time.Time)
	c.mu.Lock()
	w := &waiter{at: c.now.Add(d), period: d, tick: out, ctx: ctx}
	c.addLocked(w)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.remove(w)
	}()
	return out
}

// Advance moves the virtual time forward by d, firing every sleeper and tick
// that falls due on the way, earliest first.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		w := c.nextDueLocked(target)
		if w == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = w.at
		if w.period == 0 {
			c.removeLocked(w)
			c.mu.Unlock()
			close(w.wake)
			continue
		}
		at := w.at
		w.at = w.at.Add(w.period)
		c.mu.Unlock()

		select {
		case w.tick <- at:
		case <-w.ctx.Done():
			c.remove(w)
		}
	}
}

// BlockUntil waits until at least n sleepers or tickers are registered.
func (c *TestClock) BlockUntil(ctx context.Context, n int) error {
	for {
		c.mu.Lock()
		if len(c.waiters) >= n {
			c.mu.Unlock()
			return nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Waiters is the number of registered sleepers and tickers.
func (c *TestClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

func (c *TestClock) nextDueLocked(target time.Time) *waiter {
	sort.SliceStable(c.waiters, func(i, j int) bool {
		return c.waiters[i].at.Before(c.waiters[j].at)
	})
	for _, w := range c.waiters {
		if w.ctx.Err() != nil {
			continue
		}
		if !w.at.After(target) {
			return w
		}
		break
	}
	return nil
}

func (c *TestClock) addLocked(w *waiter) {
	c.waiters = append(c.waiters, w)
	c.notifyLocked()
}

func (c *TestClock) remove(w *waiter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(w)
}

func (c *TestClock) removeLocked(w *waiter) {
	for i, candidate := range c.waiters {
		if candidate == w {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			c.notifyLocked()
			return
		}
	}
}

func (c *TestClock) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
