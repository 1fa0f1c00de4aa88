package handlers_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/on-the-ground/ymir_dataset/effects/internal/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceWrite mimics a store write routed by the slice it targets.
type sliceWrite struct {
	seq   int
	slice string
}

func (w sliceWrite) PartitionKey() string {
	return w.slice
}

func TestSingleQueue_DispatchesToHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		called []int
		wg     sync.WaitGroup
	)
	wg.Add(2)

	dispatcher := handlers.NewSingleQueue(ctx, 10, func(_ context.Context, msg int) {
		defer wg.Done()
		mu.Lock()
		called = append(called, msg)
		mu.Unlock()
	})
	assert.True(t, dispatcher.Dispatch(ctx, 1))
	assert.True(t, dispatcher.Dispatch(ctx, 2))
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, called, 2)
	assert.True(t, slices.Contains(called, 1) && slices.Contains(called, 2), "handler saw %v", called)
}

func TestPartitionedQueue_OrderIsPreservedForSameSlice(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu        sync.Mutex
		processed []int
		wg        sync.WaitGroup
	)
	wg.Add(50)

	dispatcher := handlers.NewPartitionedQueue(ctx, 4, 10, func(_ context.Context, msg sliceWrite) {
		defer wg.Done()
		mu.Lock()
		processed = append(processed, msg.seq)
		mu.Unlock()
	})

	for i := 0; i < 50; i++ {
		assert.True(t, dispatcher.Dispatch(ctx, sliceWrite{seq: i, slice: "datasets"}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i, seq := range processed {
		if seq != i {
			t.Fatalf("writes to one slice reordered: %v", processed)
		}
	}
}

func TestSingleQueue_StopHandsBackQueuedMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	h := &blockingHandler{
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	dispatcher := handlers.NewSingleQueue(ctx, 4, h.Handle)

	require.True(t, dispatcher.Dispatch(context.Background(), 1))
	select {
	case <-h.entered:
	case <-time.After(time.Second):
		t.Fatal("handler did not start")
	}
	require.True(t, dispatcher.Dispatch(context.Background(), 2))
	require.True(t, dispatcher.Dispatch(context.Background(), 3))

	cancel()
	close(h.release)

	var dropped []int
	dispatcher.Stop(func(msg int) { dropped = append(dropped, msg) })
	assert.Equal(t, []int{2, 3}, dropped)

	assert.False(t, dispatcher.Dispatch(context.Background(), 4))
}

func TestPartitionedQueue_ConcurrentDispatchAndStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var handled, dropped, refused atomic.Int64
	dispatcher := handlers.NewPartitionedQueue(ctx, 4, 2, func(context.Context, sliceWrite) {
		handled.Add(1)
	})

	var wg sync.WaitGroup
	for p := 0; p < 8; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if !dispatcher.Dispatch(context.Background(), sliceWrite{seq: i, slice: fmt.Sprintf("slice-%d", p)}) {
					refused.Add(1)
				}
			}
		}(p)
	}

	time.Sleep(5 * time.Millisecond)
	cancel()
	dispatcher.Stop(func(sliceWrite) { dropped.Add(1) })
	wg.Wait()

	assert.Equal(t, int64(8*200), handled.Load()+dropped.Load()+refused.Load())
}

type blockingHandler struct {
	release chan struct{}
	entered chan struct{}
}

func (h *blockingHandler) Handle(context.Context, int) {
	h.entered <- struct{}{}
	<-h.release
}

func TestSingleQueue_BlocksWhenBufferIsFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := &blockingHandler{
		release: make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	dispatcher := handlers.NewSingleQueue(ctx, 1, h.Handle)

	go func() { dispatcher.Dispatch(ctx, 1) }()
	select {
	case <-h.entered:
	case <-time.After(time.Second):
		t.Fatal("handler did not start")
	}

	require.True(t, dispatcher.Dispatch(ctx, 2)) // fills the buffer

	blocked := make(chan struct{})
	go func() {
		dispatcher.Dispatch(ctx, 3)
		close(blocked)
	}()

	select {
	case <-blocked:
		t.Fatal("expected the third send to block")
	case <-time.After(200 * time.Millisecond):
	}

	close(h.release)
	select {
	case <-blocked:
	case <-time.After(time.Second):
		t.Fatal("third send never unblocked")
	}
}
