package handlers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/on-the-ground/ymir_dataset/effects/internal/handlers"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireAndForgetHandler_BasicExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan string, 1)
	handler := handlers.NewFireAndForgetHandler(
		ctx,
		10,
		func(_ context.Context, msg string) { received <- msg },
		func() {},
	)
	defer handler.Close()

	handler.FireAndForgetEffect(ctx, "dataset 34 failed")

	select {
	case msg := <-received:
		assert.Equal(t, "dataset 34 failed", msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for handler")
	}
}

func TestFireAndForgetHandler_CancelledContextDropsPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	time.Sleep(100 * time.Millisecond)

	called := make(chan struct{}, 1)
	handler := handlers.NewFireAndForgetHandler(
		ctx,
		10,
		func(context.Context, string) { called <- struct{}{} },
		func() {},
	)
	defer handler.Close()

	handler.FireAndForgetEffect(ctx, "should-not-send")

	select {
	case <-called:
		t.Fatal("handler should not have been called")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFireAndForgetHandler_TeardownRunsOnce(t *testing.T) {
	var teardowns int
	handler := handlers.NewPartitionableFireAndForgetHandler(
		context.Background(),
		effectmodel.NewEffectScopeConfig(2, 2),
		func(context.Context, sliceWrite) {},
		func() { teardowns++ },
	)

	handler.Close()
	handler.Close()
	assert.Equal(t, 1, teardowns)
}

func TestResumableHandler_ResumesWithValueAndError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errOdd := errors.New("odd")
	handler := handlers.NewResumableHandler(
		ctx,
		1,
		func(_ context.Context, n int) (int, error) {
			if n%2 == 1 {
				return 0, errOdd
			}
			return n * 10, nil
		},
		func() {},
	)
	defer handler.Close()

	res, ok := <-handler.PerformEffect(ctx, 4)
	require.True(t, ok)
	assert.NoError(t, res.Err)
	assert.Equal(t, 40, res.Value)

	res, ok = <-handler.PerformEffect(ctx, 3)
	require.True(t, ok)
	assert.ErrorIs(t, res.Err, errOdd)
}

func TestPartitionableResumableHandler_SerializesPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var seen []int
	handler := handlers.NewPartitionableResumableHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(4, 4),
		func(_ context.Context, w sliceWrite) (int, error) {
			seen = append(seen, w.seq) // one worker per slice: no lock needed
			return len(seen), nil
		},
		func() {},
	)
	defer handler.Close()

	results := make([]<-chan handlers.ResumableResult[int], 0, 10)
	for i := 0; i < 10; i++ {
		results = append(results, handler.PerformEffect(ctx, sliceWrite{seq: i, slice: "datasets"}))
	}
	for i, ch := range results {
		res := <-ch
		require.NoError(t, res.Err)
		assert.Equal(t, i+1, res.Value)
	}
}

func TestFireAndForgetHandler_EffectAfterCloseIsDropped(t *testing.T) {
	called := make(chan string, 1)
	handler := handlers.NewFireAndForgetHandler(
		context.Background(),
		4,
		func(_ context.Context, msg string) { called <- msg },
		func() {},
	)
	handler.Close()

	assert.NotPanics(t, func() {
		handler.FireAndForgetEffect(context.Background(), "late log line")
	})
	select {
	case msg := <-called:
		t.Fatalf("handler called after close with %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestResumableHandler_ClosedHandlerResumesWithError(t *testing.T) {
	entered := make(chan struct{}, 1)
	handler := handlers.NewResumableHandler(
		context.Background(),
		4,
		func(ctx context.Context, n int) (int, error) {
			if n == 1 {
				entered <- struct{}{}
				<-ctx.Done()
			}
			return n, nil
		},
		func() {},
	)

	inFlight := handler.PerformEffect(context.Background(), 1)
	<-entered
	queued := handler.PerformEffect(context.Background(), 2)

	handler.Close()

	res := <-inFlight
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Value)

	res = <-queued
	assert.ErrorIs(t, res.Err, effectmodel.ErrEffectHandlerClosed)

	res = <-handler.PerformEffect(context.Background(), 3)
	assert.ErrorIs(t, res.Err, effectmodel.ErrEffectHandlerClosed)
}
