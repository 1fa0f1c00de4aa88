package dataset_test

import (
	"context"
	"testing"
	"time"

	"github.com/on-the-ground/ymir_dataset/effects/binding"
	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/effects/gateway/gatewaytest"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/notify"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/effects/task"
	"go.uber.org/zap/zaptest/observer"
)

type fixture struct {
	ctx     context.Context
	client  *gatewaytest.Client
	notices chan notify.Notice
	events  <-chan store.TimeBoundedPayload
	logs    *observer.ObservedLogs
}

func newFixture(t *testing.T, client *gatewaytest.Client, initial map[store.Slice]any, bindings map[string]any) *fixture {
	t.Helper()
	f := &fixture{
		client:  client,
		notices: make(chan notify.Notice, 16),
	}

	ctx, endOfLog, logs := log.WithObservedEffectHandler(context.Background())
	f.logs = logs
	ctx, endOfBinding := binding.WithEffectHandler(ctx, 1, 1, bindings)
	ctx, endOfNotify := notify.WithEffectHandler(ctx, 16, func(_ context.Context, n notify.Notice) {
		f.notices <- n
	})
	ctx, endOfStore := store.WithEffectHandler(ctx, 4, 4, store.NewInMemoryRepo(), initial)
	ctx, endOfGateway := gateway.WithEffectHandler(ctx, 4, 2, client)
	ctx, endOfTask := task.WithEffectHandler[any](ctx, 4)
	t.Cleanup(func() {
		endOfTask()
		endOfGateway()
		endOfStore()
		endOfNotify()
		endOfBinding()
		endOfLog()
	})

	events, err := store.Source(ctx)
	if err != nil {
		t.Fatalf("store source: %v", err)
	}
	f.ctx = ctx
	f.events = events
	return f
}

// nextNotice waits for the next notice, failing the test after a second.
func (f *fixture) nextNotice(t *testing.T) notify.Notice {
	t.Helper()
	select {
	case n := <-f.notices:
		return n
	case <-time.After(time.Second):
		t.Fatal("no notice delivered")
		return notify.Notice{}
	}
}

// assertNoNotice checks that nothing was notified within a short window.
func (f *fixture) assertNoNotice(t *testing.T) {
	t.Helper()
	select {
	case n := <-f.notices:
		t.Fatalf("unexpected notice: %+v", n)
	case <-time.After(50 * time.Millisecond):
	}
}

// writes drains the store change events published so far.
func (f *fixture) writes() []store.Slice {
	var slices []store.Slice
	for {
		select {
		case ev := <-f.events:
			slices = append(slices, ev.Slice)
		default:
			return slices
		}
	}
}
