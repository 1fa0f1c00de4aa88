package concurrency

import (
	"context"
	"sync"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"github.com/on-the-ground/ymir_dataset/effects/log"
)

// WithEffectHandler installs a fire-and-forget concurrency effect handler.
//
// It allows Effect(ctx, fns...) to spawn goroutines under a managed scope.
//
//   - Each child runs with a context derived from the context it was spawned with,
//     so cancelling that context cancels the child.
//   - A panicking child is recovered and logged through the log effect.
//   - The returned teardown blocks until every spawned child has returned.
//
// A log effect handler must be registered in ctx.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
) (context.Context, func() context.Context) {
	sv := &supervisor{}
	return effects.WithFireAndForgetEffectHandler(
		ctx,
		bufferSize,
		effectmodel.EffectConcurrency,
		sv.spawn,
		func() {
			sv.wait(ctx)
		},
	)
}

// Effect spawns each function in its own goroutine under the concurrency handler in ctx.
func Effect(ctx context.Context, fns ...func(context.Context)) {
	effects.FireAndForgetEffect(ctx, effectmodel.EffectConcurrency, Payload{
		spawnCtx: ctx,
		fns:      fns,
	})
}

// Payload carries the functions to spawn and the context they inherit.
type Payload struct {
	spawnCtx context.Context
	fns      []func(context.Context)
}

// supervisor tracks the children spawned by one concurrency handler.
type supervisor struct {
	mu      sync.Mutex
	wg      sync.WaitGroup
	cancels []context.CancelFunc
}

func (s *supervisor) spawn(handlerCtx context.Context, payload Payload) {
	ready := sync.WaitGroup{}
	for _, fn := range payload.fns {
		childCtx, cancel := context.WithCancel(payload.spawnCtx)
		s.mu.Lock()
		s.cancels = append(s.cancels, cancel)
		s.mu.Unlock()

		s.wg.Add(1)
		ready.Add(1)
		go func() {
			defer s.wg.Done()
			defer cancel()
			defer func() {
				if r := recover(); r != nil {
					log.Effect(handlerCtx, log.LogError, "panic in child routine", map[string]interface{}{
						"error": r,
					})
				}
			}()
			ready.Done()
			fn(childCtx)
		}()
	}

	// all children are running before the next payload is taken
	ready.Wait()
}

func (s *supervisor) wait(ctx context.Context) {
	log.Effect(ctx, log.LogDebug, "waiting for all routines to finish", nil)
	s.wg.Wait()

	s.mu.Lock()
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
	s.mu.Unlock()
	log.Effect(ctx, log.LogDebug, "all routines finished", nil)
}
