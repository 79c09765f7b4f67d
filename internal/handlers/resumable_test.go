package handlers_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/composable_go/internal/handlers"
	"github.com/on-the-ground/composable_go/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumableHandler_ReturnsResult(t *testing.T) {
	ctx := context.Background()

	handler := handlers.NewResumableHandler(ctx, 1, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	}, func() {})
	defer handler.Close()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	res, err := handler.Perform(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 42, res)
}

func TestResumableHandler_PropagatesError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	handler := handlers.NewPartitionableResumableHandler(
		ctx,
		model.NewScopeConfig(1, 2),
		func(_ context.Context, msg keyedMessage) (string, error) {
			return "", boom
		},
		func() {},
	)
	defer handler.Close()

	_, err := handler.Perform(ctx, keyedMessage{id: 1, group: "g"})
	assert.ErrorIs(t, err, boom)
}

func TestResumableHandler_ClosedHandlerRefusesRequests(t *testing.T) {
	ctx := context.Background()

	tornDown := false
	handler := handlers.NewResumableHandler(ctx, 1, func(_ context.Context, n int) (int, error) {
		return n, nil
	}, func() { tornDown = true })
	handler.Close()
	handler.Close()
	assert.True(t, tornDown)

	_, err := handler.Perform(ctx, 1)
	assert.ErrorIs(t, err, handlers.ErrClosed)
}

func TestResumableHandler_CloseWhileRequestsAreInFlight(t *testing.T) {
	ctx := context.Background()

	started := make(chan struct{}, 1)
	handler := handlers.NewResumableHandler(ctx, 1, func(ctx context.Context, n int) (int, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return 0, ctx.Err()
	}, func() {})

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = handler.Perform(ctx, i)
		}()
	}
	<-started
	handler.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("requests were left waiting on a closed handler")
	}
	for _, err := range errs {
		assert.Error(t, err)
	}
}

func TestFireAndForgetHandler_ClosedHandlerDropsPayloads(t *testing.T) {
	ctx := context.Background()

	got := make(chan string, 1)
	handler := handlers.NewFireAndForgetHandler(ctx, 1, func(_ context.Context, msg string) {
		got <- msg
	}, func() {})
	handler.Close()

	for i := 0; i < 4; i++ {
		handler.FireAndForget(ctx, "late")
	}
	select {
	case msg := <-got:
		t.Fatalf("closed handler handled %q", msg)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFireAndForgetHandler_Delivers(t *testing.T) {
	ctx := context.Background()

	got := make(chan string, 1)
	handler := handlers.NewFireAndForgetHandler(ctx, 4, func(_ context.Context, msg string) {
		got <- msg
	}, func() {})
	defer handler.Close()

	handler.FireAndForget(ctx, "hello")

	select {
	case msg := <-got:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
}

func TestFireAndForgetHandler_TeardownRunsOnce(t *testing.T) {
	ctx := context.Background()

	teardowns := 0
	handler := handlers.NewFireAndForgetHandler(ctx, 1, func(context.Context, string) {}, func() {
		teardowns++
	})

	handler.Close()
	handler.Close()
	assert.Equal(t, 1, teardowns)
}
