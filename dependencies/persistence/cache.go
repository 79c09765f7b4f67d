package persistence

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto/v2"
)

const fetchAllKey = "fetch:all"

// Cached is a read-through cache in front of another Container.
// Fetch results are cached until the next successful Save.
type Cached[T Record] struct {
	inner Container[T]
	cache *ristretto.Cache[string, []T]
}

func NewCached[T Record](inner Container[T]) (*Cached[T], error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []T]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("persistence: create cache: %w", err)
	}
	return &Cached[T]{inner: inner, cache: cache}, nil
}

func (c *Cached[T]) Fetch(ctx context.Context) ([]T, error) {
	if records, ok := c.cache.Get(fetchAllKey); ok {
		return append([]T(nil), records...), nil
	}
	records, err := c.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(fetchAllKey, records, int64(len(records))+1)
	c.cache.Wait()
	return append([]T(nil), records...), nil
}

func (c *Cached[T]) Insert(ctx context.Context, record T) error {
	return c.inner.Insert(ctx, record)
}

func (c *Cached[T]) Delete(ctx context.Context, id string) error {
	return c.inner.Delete(ctx, id)
}

func (c *Cached[T]) Save(ctx context.Context) error {
	if err := c.inner.Save(ctx); err != nil {
		return err
	}
	c.cache.Del(fetchAllKey)
	return nil
}

func (c *Cached[T]) Close() {
	c.cache.Close()
}
