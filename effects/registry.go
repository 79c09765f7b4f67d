package effects

import (
	"context"
	"fmt"
	"sync"

	"github.com/on-the-ground/composable_go/internal/handlers"
)

const numRegistryShards = 16

// Registry maps cancellation ids to the contexts of the effects running under them.
type Registry struct {
	shards [numRegistryShards]registryShard
}

type registryShard struct {
	mu      sync.Mutex
	entries map[any]map[*registration]struct{}
}

type registration struct {
	cancel context.CancelFunc
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].entries = make(map[any]map[*registration]struct{})
	}
	return r
}

func (r *Registry) shardOf(id any) *registryShard {
	return &r.shards[handlers.IndexOf(fmt.Sprintf("%T:%v", id, id), numRegistryShards)]
}

func (r *Registry) register(id any, cancel context.CancelFunc) *registration {
	reg := &registration{cancel: cancel}
	sh := r.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set, ok := sh.entries[id]
	if !ok {
		set = make(map[*registration]struct{})
		sh.entries[id] = set
	}
	set[reg] = struct{}{}
	return reg
}

func (r *Registry) deregister(id any, reg *registration) {
	sh := r.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	set := sh.entries[id]
	delete(set, reg)
	if len(set) == 0 {
		delete(sh.entries, id)
	}
}

// Cancel cancels every effect registered under id and returns how many there were.
func (r *Registry) Cancel(id any) int {
	sh := r.shardOf(id)
	sh.mu.Lock()
	set := sh.entries[id]
	delete(sh.entries, id)
	sh.mu.Unlock()

	for reg := range set {
		reg.cancel()
	}
	return len(set)
}

// InFlight reports whether any effect is registered under id.
func (r *Registry) InFlight(id any) bool {
	sh := r.shardOf(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return len(sh.entries[id]) > 0
}

// CancelAll cancels every registered effect.
func (r *Registry) CancelAll() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		entries := sh.entries
		sh.entries = make(map[any]map[*registration]struct{})
		sh.mu.Unlock()
		for _, set := range entries {
			for reg := range set {
				reg.cancel()
				n++
			}
		}
	}
	return n
}

// OccupiedShards is the number of shards holding at least one id.
func (r *Registry) OccupiedShards() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		if len(sh.entries) > 0 {
			n++
		}
		sh.mu.Unlock()
	}
	return n
}
