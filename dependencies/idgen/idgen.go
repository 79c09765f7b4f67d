package idgen

import (
	"context"
	"encoding/binary"

	"github.com/google/uuid"
	"github.com/on-the-ground/composable_go/dependencies"
	"github.com/on-the-ground/composable_go/internal/model"
)

// Generator produces UUIDs.
type Generator interface {
	NewUUID() uuid.UUID
}

type GeneratorFunc func() uuid.UUID

func (f GeneratorFunc) NewUUID() uuid.UUID {
	return f()
}

// Live generates random (v4) UUIDs.
func Live() Generator {
	return GeneratorFunc(uuid.New)
}

// Constant always returns id.
func Constant(id uuid.UUID) Generator {
	return GeneratorFunc(func() uuid.UUID { return id })
}

// Incrementing returns 00000000-0000-0000-0000-000000000000, ...0001, ...0002 and so on.
// It is not safe for concurrent use on its own; WithEffectHandler serializes access.
func Incrementing() Generator {
	var next uint64
	return GeneratorFunc(func() uuid.UUID {
		var id uuid.UUID
		binary.BigEndian.PutUint64(id[8:], next)
		next++
		return id
	})
}

type request struct{}

// WithEffectHandler serves gen from a single worker, so generated ids are
// issued in request order.
func WithEffectHandler(ctx context.Context, bufferSize int, gen Generator) (context.Context, func() context.Context) {
	return dependencies.WithResumableHandler[request, uuid.UUID](
		ctx,
		bufferSize,
		model.HandlerIDGen,
		func(_ context.Context, _ request) (uuid.UUID, error) {
			return gen.NewUUID(), nil
		},
	)
}

// Next returns the next id from the bound generator, or a random one when none is bound.
func Next(ctx context.Context) uuid.UUID {
	if !dependencies.IsRegistered(ctx, model.HandlerIDGen) {
		return uuid.New()
	}
	id, err := dependencies.PerformResumable[request, uuid.UUID](ctx, model.HandlerIDGen, request{})
	if err != nil {
		return uuid.New()
	}
	return id
}
