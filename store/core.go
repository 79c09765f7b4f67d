package store

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/on-the-ground/composable_go/dependencies/log"
	"github.com/on-the-ground/composable_go/metrics"
	"github.com/petermattis/goid"
)

// core is shared by a root store and every store scoped from it. Its mutex
// is the single point through which all state reads and writes serialize.
type core struct {
	mu       sync.Mutex
	reducing atomic.Int64 // goroutine id currently reducing, 0 when idle

	ctx     context.Context
	name    string
	metrics *metrics.Store
	closed  bool

	observers      []*observer
	nextObserverID uint64

	activeEffects func() int64
	idle          func() <-chan struct{}
}

// onReducingGoroutine reports whether the caller is the goroutine that holds
// mu while running reducers.
func (c *core) onReducingGoroutine() bool {
	id := c.reducing.Load()
	return id != 0 && id == goid.Get()
}

// withLock runs fn holding mu. On the reducing goroutine mu is already held,
// so fn runs directly.
func (c *core) withLock(fn func()) {
	if c.onReducingGoroutine() {
		fn()
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func (c *core) warn(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["store"] = c.name
	log.Effect(c.ctx, log.LogWarn, msg, fields)
}

func (c *core) debug(msg string, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["store"] = c.name
	log.Effect(c.ctx, log.LogDebug, msg, fields)
}
