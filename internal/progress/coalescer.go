package progress

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/on-the-ground/ymir_dataset/model"
)

// Coalescer keeps the latest notification per hash until it is taken.
type Coalescer struct {
	mu      sync.Mutex
	pending model.ProgressUpdate
}

func NewCoalescer() *Coalescer {
	return &Coalescer{pending: model.ProgressUpdate{}}
}

// Add merges update into the pending notifications. A later entry for a
// hash replaces the earlier one.
func (c *Coalescer) Add(update model.ProgressUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	maps.Copy(c.pending, update)
}

// Take returns the pending notifications and starts a new batch. It
// returns nil when nothing is pending.
func (c *Coalescer) Take() model.ProgressUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}
	taken := c.pending
	c.pending = model.ProgressUpdate{}
	return taken
}

// Run adds every update read from in and calls flush with the pending batch
// once per interval. Intervals without notifications do not call flush.
// Run returns when ctx is done or in is closed; a batch pending at that
// moment is flushed only when in was closed.
func (c *Coalescer) Run(
	ctx context.Context,
	in <-chan model.ProgressUpdate,
	interval time.Duration,
	flush func(context.Context, model.ProgressUpdate),
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-in:
			if !ok {
				if batch := c.Take(); batch != nil {
					flush(ctx, batch)
				}
				return
			}
			c.Add(update)
		case <-ticker.C:
			if batch := c.Take(); batch != nil {
				flush(ctx, batch)
			}
		}
	}
}
