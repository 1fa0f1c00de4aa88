package handlers

import (
	"context"
	"sync"

	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
)

// WorkerDispatcher hands messages to the worker that owns them.
//
// Worker channels are never closed. Once the workers' context is done,
// Dispatch refuses new messages and Stop hands back whatever was still
// queued.
type WorkerDispatcher[T any] interface {
	// Dispatch enqueues msg. It reports false when ctx ends, or the workers
	// stop, before msg is enqueued.
	Dispatch(ctx context.Context, msg T) bool
	// Stop waits for the workers to return, which they do once their
	// context is done, then passes every message still queued to dropFn.
	Stop(dropFn func(T))
}

type workerQueues[T any] struct {
	mu      sync.RWMutex
	stopped bool
	done    <-chan struct{}
	running sync.WaitGroup
	chs     []chan T
	pick    func(T) int
}

func startWorkers[T any](
	ctx context.Context,
	numWorkers, bufferSize int,
	pick func(T) int,
	handleFn func(context.Context, T),
) *workerQueues[T] {
	q := &workerQueues[T]{
		done: ctx.Done(),
		chs:  make([]chan T, numWorkers),
		pick: pick,
	}
	ready := sync.WaitGroup{}
	for i := range q.chs {
		ch := make(chan T, bufferSize)
		q.chs[i] = ch
		ready.Add(1)
		q.running.Add(1)
		go func() {
			defer q.running.Done()
			ready.Done()
			runWorker(ctx, ch, handleFn)
		}()
	}
	ready.Wait()
	return q
}

// NewSingleQueue starts one worker draining a buffered channel until ctx is done.
func NewSingleQueue[T any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	return startWorkers(ctx, 1, bufferSize, func(T) int { return 0 }, handleFn)
}

// NewPartitionedQueue starts numWorkers workers. A message always lands on the
// worker selected by the xxhash of its partition key.
func NewPartitionedQueue[T effectmodel.Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) WorkerDispatcher[T] {
	return startWorkers(ctx, numWorkers, bufferSize, func(msg T) int {
		return getIndexByHash(msg, numWorkers)
	}, handleFn)
}

func (q *workerQueues[T]) Dispatch(ctx context.Context, msg T) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped || ctx.Err() != nil {
		return false
	}
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case <-ctx.Done():
		return false
	case <-q.done:
		return false
	case q.chs[q.pick(msg)] <- msg:
		return true
	}
}

func (q *workerQueues[T]) Stop(dropFn func(T)) {
	q.running.Wait()

	// senders blocked on a full channel give up once done is closed,
	// so the write lock is eventually granted
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return
	}
	q.stopped = true
	for _, ch := range q.chs {
		drain(ch, dropFn)
	}
}

func drain[T any](ch chan T, dropFn func(T)) {
	for {
		select {
		case msg := <-ch:
			if dropFn != nil {
				dropFn(msg)
			}
		default:
			return
		}
	}
}

func runWorker[T any](ctx context.Context, ch chan T, handleFn func(context.Context, T)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		select {
		case msg := <-ch:
			handleFn(ctx, msg)
		case <-ctx.Done():
			return
		}
	}
}
