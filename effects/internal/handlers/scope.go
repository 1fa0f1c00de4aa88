package handlers

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// effectScope owns the workers of one registered handler.
//
// It is not safe for concurrent Close calls: the scope belongs to the
// goroutine that registered the handler and ends it with the returned
// teardown function.
type effectScope[T any] struct {
	EffectId   string
	dispatcher WorkerDispatcher[T]
	closeFn    func()
	dropFn     func(T)
	closed     bool
}

// Close runs the teardown, which cancels the workers, then settles every
// message left in their queues with dropFn.
func (es *effectScope[T]) Close() {
	if !es.closed {
		es.closeFn()
		es.dispatcher.Stop(es.dropFn)
		es.closed = true
		zap.L().Debug("effect scope closed", zap.String("effectId", es.EffectId))
	}
}

func newEffectScope[T any](
	dispatcher WorkerDispatcher[T],
	teardown func(),
	dropFn func(T),
) *effectScope[T] {
	return &effectScope[T]{
		EffectId:   uuid.New().String(),
		dispatcher: dispatcher,
		closeFn:    teardown,
		dropFn:     dropFn,
	}
}
