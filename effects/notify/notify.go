package notify

import (
	"context"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"github.com/on-the-ground/ymir_dataset/effects/log"
)

// Notice is an error reported to the user by the effect that hit it.
type Notice struct {
	Effect string
	Err    error
}

// WithEffectHandler registers a fire-and-forget notify handler calling
// handleFn for every notice, one at a time.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
	handleFn func(context.Context, Notice),
) (context.Context, func() context.Context) {
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectNotify,
		handleFn,
	)
}

// WithLogEffectHandler registers a notify handler writing every notice to
// the log effect at error level.
func WithLogEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	return WithEffectHandler(ctx, bufferSize, func(ctx context.Context, n Notice) {
		log.Effect(ctx, log.LogError, "effect failed", map[string]interface{}{
			"effect": n.Effect,
			"error":  n.Err,
		})
	})
}

// Effect reports err on behalf of the named effect.
func Effect(ctx context.Context, effect string, err error) {
	effects.FireAndForgetEffect(ctx, effectmodel.EffectNotify, Notice{
		Effect: effect,
		Err:    err,
	})
}
