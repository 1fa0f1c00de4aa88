package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
)

// NewResumableHandler serves every payload on a single worker.
func NewResumableHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			NewSingleQueue(ctx, bufferSize, resume(handleFn)),
			func() {
				teardown()
				cancelFn()
			},
			resumeClosed[P, R],
		),
	}
}

// NewPartitionableResumableHandler serves payloads on config.NumWorkers workers,
// keeping the order of payloads that share a partition key.
func NewPartitionableResumableHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P) (R, error),
	teardown func(),
) ResumableHandler[P, R] {
	ctx, cancelFn := context.WithCancel(ctx)
	return ResumableHandler[P, R]{
		effectScope: newEffectScope(
			NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, resume(handleFn)),
			func() {
				teardown()
				cancelFn()
			},
			resumeClosed[P, R],
		),
	}
}

func resume[P any, R any](
	handleFn func(context.Context, P) (R, error),
) func(context.Context, ResumableEffectMessage[P, R]) {
	return func(ctx context.Context, msg ResumableEffectMessage[P, R]) {
		// ResumeCh is buffered, the send never blocks
		msg.ResumeCh <- ResumableResultFrom(handleFn(ctx, msg.Payload))
		close(msg.ResumeCh)
	}
}

type ResumableHandler[P any, R any] struct {
	*effectScope[ResumableEffectMessage[P, R]]
}

// PerformEffect enqueues the payload and returns the channel the result is resumed on.
// The channel stays empty if ctx is done before the payload is enqueued. A
// closed handler resumes with ErrEffectHandlerClosed.
func (rh ResumableHandler[P, R]) PerformEffect(ctx context.Context, payload P) <-chan ResumableResult[R] {
	resumeCh := make(chan ResumableResult[R], 1)
	msg := ResumableEffectMessage[P, R]{
		Payload:  payload,
		ResumeCh: resumeCh,
	}
	if !rh.dispatcher.Dispatch(ctx, msg) && ctx.Err() == nil {
		resumeClosed(msg)
	}
	return resumeCh
}

func resumeClosed[P any, R any](msg ResumableEffectMessage[P, R]) {
	var zero R
	msg.ResumeCh <- ResumableResultFrom(zero, effectmodel.ErrEffectHandlerClosed)
	close(msg.ResumeCh)
}

// ResumableResult represents the result of a handled effect.
type ResumableResult[T any] struct {
	Value T
	Err   error
}

func ResumableResultFrom[R any](res R, err error) ResumableResult[R] {
	return ResumableResult[R]{Value: res, Err: err}
}

var _ effectmodel.Partitionable = ResumableEffectMessage[any, any]{}

type ResumableEffectMessage[P any, R any] struct {
	Payload  P
	ResumeCh chan ResumableResult[R]
}

func (rem ResumableEffectMessage[P, R]) PartitionKey() string {
	if p, ok := any(rem.Payload).(effectmodel.Partitionable); ok {
		return p.PartitionKey()
	}
	return ""
}
