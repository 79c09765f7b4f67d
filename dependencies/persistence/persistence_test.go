package persistence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/on-the-ground/composable_go/dependencies/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string
	Body string
}

func (n note) RecordID() string { return n.ID }

func TestMemDB_InsertIsStagedUntilSave(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewMemDB[note]()
	require.NoError(t, err)

	require.NoError(t, db.Insert(ctx, note{ID: "b", Body: "second"}))
	require.NoError(t, db.Insert(ctx, note{ID: "a", Body: "first"}))

	got, err := db.Fetch(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, db.Save(ctx))
	got, err = db.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "b", Body: "second"}, {ID: "a", Body: "first"}}, got)
}

func TestMemDB_UpdateKeepsPosition(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewMemDB[note]()
	require.NoError(t, err)

	require.NoError(t, db.Insert(ctx, note{ID: "a", Body: "1"}))
	require.NoError(t, db.Insert(ctx, note{ID: "b", Body: "2"}))
	require.NoError(t, db.Save(ctx))

	require.NoError(t, db.Insert(ctx, note{ID: "a", Body: "1'"}))
	require.NoError(t, db.Save(ctx))

	got, err := db.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "a", Body: "1'"}, {ID: "b", Body: "2"}}, got)
}

func TestMemDB_Delete(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewMemDB[note]()
	require.NoError(t, err)

	require.NoError(t, db.Insert(ctx, note{ID: "a"}))
	require.NoError(t, db.Insert(ctx, note{ID: "b"}))
	require.NoError(t, db.Save(ctx))

	require.NoError(t, db.Delete(ctx, "a"))
	require.NoError(t, db.Save(ctx))
	got, err := db.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "b"}}, got)

	require.NoError(t, db.Delete(ctx, "missing"))
	assert.ErrorIs(t, db.Save(ctx), persistence.ErrNotFound)
}

func TestCached_InvalidatesOnSave(t *testing.T) {
	ctx := context.Background()
	db, err := persistence.NewMemDB[note]()
	require.NoError(t, err)
	cached, err := persistence.NewCached[note](db)
	require.NoError(t, err)
	defer cached.Close()

	require.NoError(t, cached.Insert(ctx, note{ID: "a"}))
	require.NoError(t, cached.Save(ctx))

	got, err := cached.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "a"}}, got)

	require.NoError(t, cached.Insert(ctx, note{ID: "b"}))
	require.NoError(t, cached.Save(ctx))
	got, err = cached.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, []note{{ID: "a"}, {ID: "b"}}, got)
}

func TestFailing(t *testing.T) {
	boom := errors.New("boom")
	c := persistence.Failing[note](boom)
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, c.Save(context.Background()), boom)
}

func TestFrom(t *testing.T) {
	ctx := context.Background()
	_, err := persistence.From[note](ctx, "notes")
	assert.ErrorIs(t, err, persistence.ErrNoContainer)

	db, err := persistence.NewMemDB[note]()
	require.NoError(t, err)
	ctx, end := persistence.WithEffectHandler[note](ctx, "notes", db)
	defer end()

	got, err := persistence.From[note](ctx, "notes")
	require.NoError(t, err)
	assert.Same(t, db, got)
}
