package handlers

import (
	"context"

	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"go.uber.org/zap"
)

func NewFireAndForgetHandler[P any](
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	var scope *effectScope[P]
	scope = newEffectScope(
		NewSingleQueue(ctx, bufferSize, handleFn),
		func() {
			teardown()
			cancelFn()
		},
		func(P) {
			zap.L().Debug("queued effect dropped on close", zap.String("effectId", scope.EffectId))
		},
	)
	return FireAndForgetHandler[P]{effectScope: scope}
}

func NewPartitionableFireAndForgetHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	handleFn func(context.Context, P),
	teardown func(),
) FireAndForgetHandler[P] {
	ctx, cancelFn := context.WithCancel(ctx)
	var scope *effectScope[P]
	scope = newEffectScope(
		NewPartitionedQueue(ctx, config.NumWorkers, config.BufferSize, handleFn),
		func() {
			teardown()
			cancelFn()
		},
		func(P) {
			zap.L().Debug("queued effect dropped on close", zap.String("effectId", scope.EffectId))
		},
	)
	return FireAndForgetHandler[P]{effectScope: scope}
}

type FireAndForgetHandler[P any] struct {
	*effectScope[P]
}

// FireAndForgetEffect enqueues the payload and returns without waiting for
// the handler. The payload is dropped if ctx is done or the handler is
// closed first.
func (ffh FireAndForgetHandler[P]) FireAndForgetEffect(ctx context.Context, payload P) {
	if !ffh.dispatcher.Dispatch(ctx, payload) && ctx.Err() == nil {
		zap.L().Debug("effect dropped by closed handler", zap.String("effectId", ffh.EffectId))
	}
}

