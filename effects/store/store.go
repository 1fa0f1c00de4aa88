package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/shared/helper"
)

// ErrNoSuchSlice is returned by Select when the slice has never been put.
var ErrNoSuchSlice = errors.New("slice not found")

// WithEffectHandler registers a resumable, partitionable store effect handler.
//
// Operations are partitioned by slice name: every Select and Put of one
// slice is executed by the same worker, in arrival order. Writes replace the
// slice value; there is no version check, so the last Put wins.
//
// Each successful Put is published on the change-event channel returned by
// Source. Publishing never blocks; events are dropped while nobody drains
// the channel. The channel is not closed on teardown.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
	numWorkers int,
	repo Repo,
	initial map[Slice]any,
) (context.Context, func() context.Context) {
	sh := &storeHandler{
		repo: repo,
		sink: make(chan TimeBoundedPayload, max(16, bufferSize*numWorkers)),
	}
	for slice, v := range initial {
		if err := repo.Store(slice, v); err != nil {
			log.Effect(ctx, log.LogError, "fail to seed store slice", map[string]interface{}{
				"slice": slice,
				"error": err,
			})
		}
	}
	return effects.WithResumablePartitionableEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectStore,
		sh.handle,
	)
}

// Select returns the current value of slice.
func Select[T any](ctx context.Context, slice Slice) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return effect(ctx, selectOp{Slice: slice})
	})
}

// Put replaces the value of slice.
func Put(ctx context.Context, slice Slice, value any) error {
	_, err := effect(ctx, putOp{Slice: slice, Value: value})
	return err
}

// Source returns the change-event channel of the store handler in ctx.
func Source(ctx context.Context) (<-chan TimeBoundedPayload, error) {
	return helper.GetTypedValueOf[<-chan TimeBoundedPayload](func() (any, error) {
		return effect(ctx, source{})
	})
}

func effect(ctx context.Context, payload Payload) (any, error) {
	return effects.AwaitResumableEffect[Payload, any](ctx, effectmodel.EffectStore, payload)
}

type storeHandler struct {
	repo Repo
	sink chan TimeBoundedPayload
}

func (sh *storeHandler) handle(ctx context.Context, payload Payload) (any, error) {
	switch payload := payload.(type) {

	case selectOp:
		v, ok, err := sh.repo.Load(payload.Slice)
		if err != nil {
			return nil, fmt.Errorf("load slice %s: %w", payload.Slice, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoSuchSlice, payload.Slice)
		}
		return v, nil

	case putOp:
		if err := sh.repo.Store(payload.Slice, payload.Value); err != nil {
			return nil, fmt.Errorf("store slice %s: %w", payload.Slice, err)
		}
		select {
		case sh.sink <- TimeBoundedPayload{putOp: payload, TimeSpan: effects.Now()}:
		default:
			log.Effect(ctx, log.LogDebug, "store change event dropped", map[string]interface{}{
				"slice": payload.Slice,
			})
		}
		return true, nil

	case source:
		return (<-chan TimeBoundedPayload)(sh.sink), nil

	default:
		// Payload is sealed; reaching this is a bug in this package.
		panic(fmt.Errorf("invalid store operation type: %T", payload))
	}
}

// TimeBoundedPayload is a store write stamped with the span it happened in.
type TimeBoundedPayload struct {
	putOp
	effects.TimeSpan
}
