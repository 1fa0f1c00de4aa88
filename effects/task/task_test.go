package task_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskEffect_Success(t *testing.T) {
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	defer endOfLogHandler()

	ctx, endOfTaskHandler := task.WithEffectHandler[string](ctx, 1)
	defer endOfTaskHandler()

	ch := task.Effect(ctx, func(context.Context) (string, error) {
		time.Sleep(20 * time.Millisecond)
		return "ok", nil
	})

	select {
	case res := <-ch:
		require.NoError(t, res.Err)
		assert.Equal(t, "ok", res.Value)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task result")
	}
}

func TestTaskEffect_Cancelled(t *testing.T) {
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	defer endOfLogHandler()

	ctx, endOfTaskHandler := task.WithEffectHandler[string](ctx, 1)
	defer endOfTaskHandler()

	ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	ch := task.Effect(ctx, func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "too late", nil
		}
	})

	select {
	case res := <-ch:
		assert.True(t, errors.Is(res.Err, context.DeadlineExceeded), "got %v", res.Err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task result")
	}
}

func TestTaskEffect_PanicBecomesError(t *testing.T) {
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	defer endOfLogHandler()

	ctx, endOfTaskHandler := task.WithEffectHandler[int](ctx, 1)
	defer endOfTaskHandler()

	_, err := task.Await(ctx, func(context.Context) (int, error) {
		panic("boom")
	})
	assert.ErrorContains(t, err, "task panicked: boom")
}

func TestTaskEffect_RunsConcurrently(t *testing.T) {
	ctx, endOfLogHandler := log.WithTestEffectHandler(context.Background())
	defer endOfLogHandler()

	ctx, endOfTaskHandler := task.WithEffectHandler[int](ctx, 10)
	defer endOfTaskHandler()

	var arrived sync.WaitGroup
	arrived.Add(5)
	allArrived := make(chan struct{})
	go func() {
		arrived.Wait()
		close(allArrived)
	}()

	results := make([]<-chan task.Result[int], 0, 5)
	for i := 0; i < 5; i++ {
		n := i
		results = append(results, task.Effect(ctx, func(context.Context) (int, error) {
			// every task has to be in flight before any can finish
			arrived.Done()
			select {
			case <-allArrived:
				return n * 2, nil
			case <-time.After(500 * time.Millisecond):
				return 0, errors.New("tasks were serialized")
			}
		}))
	}

	for i, ch := range results {
		select {
		case res := <-ch:
			require.NoError(t, res.Err)
			assert.Equal(t, i*2, res.Value)
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for task %d", i)
		}
	}
}
