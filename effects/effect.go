package effects

import (
	"context"
	"errors"

	"github.com/on-the-ground/ymir_dataset/effects/internal/handlers"
	"github.com/on-the-ground/ymir_dataset/effects/internal/helper"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	sharedHelper "github.com/on-the-ground/ymir_dataset/shared/helper"
	"go.uber.org/zap"
)

// ErrNoEffectHandler is the panic value raised when an effect is performed
// without a handler registered in the context.
var ErrNoEffectHandler = effectmodel.ErrNoEffectHandler

// ErrEffectHandlerClosed resumes effects performed on, or still queued at,
// a handler that has been torn down.
var ErrEffectHandlerClosed = effectmodel.ErrEffectHandlerClosed

// IsMissingHandler reports whether a recovered panic value signals a missing handler.
func IsMissingHandler(r any) bool {
	err, ok := r.(error)
	return ok && errors.Is(err, ErrNoEffectHandler)
}

// WithResumablePartitionableEffectHandler registers a resumable effect handler for a given effect enum.
//
// Payloads are routed by PartitionKey(), so payloads sharing a key are handled
// one at a time, in arrival order.
//
// Usage:
//
//	ctx, end := WithResumablePartitionableEffectHandler(ctx, config, MyEffectEnum, handleFn)
//	defer end()
func WithResumablePartitionableEffectHandler[P effectmodel.Partitionable, R any](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewPartitionableResumableHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, handler.Close, handler)
}

// WithResumableEffectHandler registers a resumable effect handler served by a single worker.
func WithResumableEffectHandler[P any, R any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P) (R, error),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewResumableHandler(ctx, bufferSize, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, handler.Close, handler)
}

// PerformResumableEffect sends a payload to the resumable effect handler and
// returns the channel its result is resumed on.
//
// Panics if no handler is registered for the given effect enum.
func PerformResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) <-chan handlers.ResumableResult[R] {
	handler := sharedHelper.MustGetTypedValue[handlers.ResumableHandler[P, R]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	return handler.PerformEffect(ctx, payload)
}

// AwaitResumableEffect performs a resumable effect and suspends until it is
// resumed or ctx is done.
func AwaitResumableEffect[P any, R any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) (R, error) {
	resultCh := PerformResumableEffect[P, R](ctx, enum, payload)
	select {
	case res, ok := <-resultCh:
		if ok {
			return res.Value, res.Err
		}
	case <-ctx.Done():
	}
	var zero R
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	return zero, context.Canceled
}

// WithFireAndForgetEffectHandler registers a fire-and-forget effect handler for a given effect enum.
//
// Suitable for one-shot effects like logging or error notices.
func WithFireAndForgetEffectHandler[P any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewFireAndForgetHandler(ctx, bufferSize, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, handler.Close, handler)
}

// WithFireAndForgetPartitionableEffectHandler registers a partitioned fire-and-forget handler.
func WithFireAndForgetPartitionableEffectHandler[P effectmodel.Partitionable](
	ctx context.Context,
	config effectmodel.EffectScopeConfig,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	handler := handlers.NewPartitionableFireAndForgetHandler(ctx, config, handleFn, normalizeTeardown(teardown))
	return register(ctx, enum, handler.EffectId, handler.Close, handler)
}

// FireAndForgetEffect triggers a fire-and-forget effect for the given enum and payload.
//
// Panics if no handler is registered for the given enum.
func FireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) {
	handler := sharedHelper.MustGetTypedValue[handlers.FireAndForgetHandler[P]](
		func() (any, error) {
			return helper.GetHandler(ctx, enum)
		},
	)
	handler.FireAndForgetEffect(ctx, payload)
}

func register(
	ctx context.Context,
	enum effectmodel.EffectEnum,
	effectId string,
	closeFn func(),
	handler any,
) (context.Context, func() context.Context) {
	ctxWith := context.WithValue(ctx, enum, handler)
	zap.S().Debugf("created effect handler: effectId: %v, enum: %v", effectId, enum)

	return ctxWith, func() context.Context {
		closeFn()
		zap.S().Debugf("closed effect handler: effectId: %v, enum: %v", effectId, enum)
		return ctx
	}
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
