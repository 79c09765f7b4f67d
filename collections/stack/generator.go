package stack

import (
	"context"
	"sync"

	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/dependencies/binding"
)

// ElementID is the stable identity of a stack entry.
type ElementID int

// Generator issues element ids. Ids must never repeat.
type Generator interface {
	Next() ElementID
}

type SequentialGenerator struct {
	mu   sync.Mutex
	next ElementID
}

// NewSequentialGenerator issues 0, 1, 2 and so on.
func NewSequentialGenerator() *SequentialGenerator {
	return &SequentialGenerator{}
}

func (g *SequentialGenerator) Next() ElementID {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

var defaultGenerator = NewSequentialGenerator()

const bindingKey = "composable_go.collections.stack.generator"

// WithGenerator binds gen for reducers running under the returned context.
func WithGenerator(ctx context.Context, gen Generator) (context.Context, func() context.Context) {
	return binding.WithEffectHandler(ctx, dependencies.NewScopeConfig(1, 1), GeneratorBindings(gen))
}

// GeneratorBindings is the binding map WithGenerator registers.
func GeneratorBindings(gen Generator) map[string]any {
	return map[string]any{bindingKey: gen}
}

// GeneratorFrom returns the bound generator, or the process-wide one.
func GeneratorFrom(ctx context.Context) Generator {
	if gen, err := binding.Get[Generator](ctx, bindingKey); err == nil {
		return gen
	}
	return defaultGenerator
}
