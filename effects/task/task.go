package task

import (
	"context"
	"fmt"
	"sync"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
)

// Func is an asynchronous operation that returns a value of type R.
type Func[R any] func(context.Context) (R, error)

// Result is what a task resumes its caller with.
type Result[R any] struct {
	Value R
	Err   error
}

// Payload is a task together with the channel its result is delivered on.
type Payload[R any] struct {
	taskCtx  context.Context
	fn       Func[R]
	resultCh chan Result[R]
}

// WithEffectHandler registers a task handler for results of type R.
//
// Every task runs in its own goroutine, so tasks performed back to back run
// concurrently. A task inherits the context it was performed with. The
// returned teardown blocks until every running task has delivered its result.
func WithEffectHandler[R any](
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	wg := &sync.WaitGroup{}
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectTask,
		func(_ context.Context, p Payload[R]) {
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer close(p.resultCh)
				p.resultCh <- run(p.taskCtx, p.fn)
			}()
		},
		wg.Wait,
	)
}

// Effect performs an asynchronous task and returns the channel its result
// arrives on. The channel is closed after the result, or left open if ctx
// is done, or the handler closed, before the task could be handed over.
func Effect[R any](ctx context.Context, fn Func[R]) <-chan Result[R] {
	resultCh := make(chan Result[R], 1)
	effects.FireAndForgetEffect(ctx, effectmodel.EffectTask, Payload[R]{
		taskCtx:  ctx,
		fn:       fn,
		resultCh: resultCh,
	})
	return resultCh
}

// Await performs the task and suspends until its result or ctx is done.
func Await[R any](ctx context.Context, fn Func[R]) (R, error) {
	select {
	case res, ok := <-Effect(ctx, fn):
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	var zero R
	return zero, ctx.Err()
}

func run[R any](ctx context.Context, fn Func[R]) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("task panicked: %v", r)}
		}
	}()
	if err := ctx.Err(); err != nil {
		return Result[R]{Err: err}
	}
	v, err := fn(ctx)
	return Result[R]{Value: v, Err: err}
}
