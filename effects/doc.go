// Package effects is the effect core of the dataset orchestration layer.
//
// Every side effect the dataset procedures need (calling the backend API,
// reading and replacing store slices, reporting errors, logging, spawning
// background work) is delegated to a handler registered in a
// context.Context. Procedures stay plain Go functions: they perform an
// effect, suspend on the handler's resume channel, and continue with the
// result.
//
// # Handlers
//
// A handler is registered with one of the With*EffectHandler functions and
// owns one or more worker goroutines:
//   - resumable handlers answer each payload on a buffered resume channel,
//   - fire-and-forget handlers consume payloads without answering,
//   - partitionable variants route payloads by PartitionKey() with xxhash,
//     so payloads sharing a key are handled by one worker in arrival order.
//
// Registration returns the derived context and a teardown function that
// closes the handler and returns the parent context.
//
// Performing an effect without a registered handler panics with an error
// wrapping ErrNoEffectHandler.
//
// Example:
//
//	func run(ctx context.Context, client gateway.Client) {
//	    ctx, endOfStore := store.WithEffectHandler(ctx, 8, 4, store.NewInMemoryRepo(), nil)
//	    defer endOfStore()
//
//	    ctx, endOfGateway := gateway.WithEffectHandler(ctx, 8, 4, client)
//	    defer endOfGateway()
//
//	    datasets, err := dataset.GetDatasets(ctx, model.DatasetQuery{Limit: 20})
//	}
package effects
