package progress

import (
	"context"
	"net/http"
	"time"

	"github.com/on-the-ground/ymir_dataset/dataset"
	"github.com/on-the-ground/ymir_dataset/effects/binding"
	"github.com/on-the-ground/ymir_dataset/effects/concurrency"
	"github.com/on-the-ground/ymir_dataset/effects/configkeys"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/model"
)

// Watch subscribes to the progress feed at feedURL and reconciles the
// datasets slice with the coalesced notifications every interval.
//
// The subscriber and the coalescer run under the concurrency effect.
// Watch blocks until the feed ends or ctx is done. An interval <= 0 is
// read from the binding effect, falling back to one second.
func Watch(ctx context.Context, feedURL string, header http.Header, interval time.Duration) error {
	if interval <= 0 {
		interval = binding.GetOr(ctx, configkeys.ProgressFlushInterval, time.Second)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan model.ProgressUpdate)
	feedErr := make(chan error, 1)
	coalescerDone := make(chan struct{})
	sub := NewSubscriber(feedURL, header)
	co := NewCoalescer()

	concurrency.Effect(ctx,
		func(ctx context.Context) {
			defer close(updates)
			feedErr <- sub.Run(ctx, updates)
		},
		func(ctx context.Context) {
			defer close(coalescerDone)
			co.Run(ctx, updates, interval, flushInto)
		},
	)

	log.Effect(ctx, log.LogInfo, "watching progress feed", map[string]interface{}{
		"url":      feedURL,
		"interval": interval.String(),
	})

	select {
	case err := <-feedErr:
		// the coalescer drains what the feed delivered before it ended
		<-coalescerDone
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func flushInto(ctx context.Context, update model.ProgressUpdate) {
	merged, err := dataset.UpdateDatasets(ctx, update)
	if err != nil {
		log.Effect(ctx, log.LogError, "fail to reconcile progress", map[string]interface{}{
			"error":   err,
			"entries": len(update),
		})
		return
	}
	log.Effect(ctx, log.LogDebug, "progress reconciled", map[string]interface{}{
		"entries": len(update),
		"items":   len(merged.Items),
	})
}
