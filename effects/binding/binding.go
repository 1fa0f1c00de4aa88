package binding

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
)

// Payload is a key-based lookup for the Binding effect.
type Payload string

func (bp Payload) PartitionKey() string {
	return string(bp)
}

// ErrKeyNotFound is returned when no scope binds the requested key.
var ErrKeyNotFound = errors.New("key not found")

// WithEffectHandler registers a resumable, partitionable effect handler for bindings.
//
//   - Accepts a key-value map used for lookups.
//   - Falls back to upper scopes if a key is not found locally.
//   - The returned teardown closes the handler and returns the parent context.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
	numWorkers int,
	bindingMap map[string]any,
) (context.Context, func() context.Context) {
	bh := bindingHandler{
		bindingMap: normalizeBindingMap(bindingMap),
	}
	return effects.WithResumablePartitionableEffectHandler[Payload, any](
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectBinding,
		bh.handle,
	)
}

// Effect performs a key-based lookup using the Binding effect handler.
func Effect(ctx context.Context, key string) (any, error) {
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectBinding, Payload(key))
}

func normalizeBindingMap(bm map[string]any) map[string]any {
	if bm == nil {
		bm = make(map[string]any)
	}
	return bm
}

// delegateBindingEffect asks the handler of an upper scope, if there is one.
func delegateBindingEffect(upperCtx context.Context, key string) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if !effects.IsMissingHandler(r) {
				panic(r)
			}
			res = nil
			err = fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
	}()
	return Effect(upperCtx, key)
}

type bindingHandler struct {
	bindingMap map[string]any
}

// handle looks up the key in the local bindingMap and delegates misses to
// the upper scope. The handler's ctx is the one the handler was registered
// with, so its EffectBinding value is the upper handler.
func (bh bindingHandler) handle(ctx context.Context, payload Payload) (any, error) {
	key := string(payload)
	if v, ok := bh.bindingMap[key]; ok {
		return v, nil
	}
	return delegateBindingEffect(ctx, key)
}
