package dataset

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/model"
)

// UpdateDatasets merges a batch of progress notifications into the
// datasets slice and puts the merged collection back.
//
// The put happens even for an empty or nil update. A missing datasets
// slice reconciles as an empty collection. Two concurrent calls may both
// read the same snapshot; the one that puts last wins.
func UpdateDatasets(ctx context.Context, update model.ProgressUpdate) (model.DatasetCollection, error) {
	current, err := store.Select[model.DatasetCollection](ctx, SliceDatasets)
	if errors.Is(err, store.ErrNoSuchSlice) {
		current, err = model.DatasetCollection{}, nil
	}
	if err != nil {
		return model.DatasetCollection{}, fmt.Errorf("select %s: %w", SliceDatasets, err)
	}

	merged, corrections := reconcile(current, update)
	for _, c := range corrections {
		log.Effect(ctx, log.LogWarn, c.msg, map[string]interface{}{
			"hash":    c.item.Hash,
			"id":      c.item.ID,
			"state":   c.item.State,
			"percent": c.entry.Percent,
		})
	}

	if err := store.Put(ctx, SliceDatasets, merged); err != nil {
		return model.DatasetCollection{}, fmt.Errorf("put %s: %w", SliceDatasets, err)
	}
	return merged, nil
}

// Reconcile applies update to coll by hash.
//
// Items keep their order and Total is untouched. Hashes without an item are
// ignored. An entry whose state is ahead of the item's state advances it to
// that state with progress 100 and ForceUpdate set. Any other entry sets the
// progress from its percent; an item's state is never moved backwards.
func Reconcile(coll model.DatasetCollection, update model.ProgressUpdate) model.DatasetCollection {
	merged, _ := reconcile(coll, update)
	return merged
}

const (
	msgPercentClamped = "progress percent out of range, clamped"
	msgStaleState     = "progress state behind stored state, kept stored state"
)

// correction is an entry that could not be applied as reported.
type correction struct {
	msg   string
	item  model.Dataset
	entry model.ProgressEntry
}

func reconcile(coll model.DatasetCollection, update model.ProgressUpdate) (model.DatasetCollection, []correction) {
	if len(update) == 0 {
		return coll, nil
	}

	var corrections []correction
	items := make([]model.Dataset, len(coll.Items))
	for i, item := range coll.Items {
		if entry, ok := update[item.Hash]; ok {
			for _, msg := range check(item, entry) {
				corrections = append(corrections, correction{msg: msg, item: item, entry: entry})
			}
			item = apply(item, entry)
		}
		items[i] = item
	}
	return model.DatasetCollection{Items: items, Total: coll.Total}, corrections
}

func advances(item model.Dataset, entry model.ProgressEntry) bool {
	return entry.State != nil && *entry.State > item.State
}

func apply(item model.Dataset, entry model.ProgressEntry) model.Dataset {
	if advances(item, entry) {
		item.State = *entry.State
		item.Progress = 100
		item.ForceUpdate = true
		return item
	}
	item.Progress = percentToProgress(entry.Percent)
	return item
}

// check reports what apply corrects in entry. Advancing entries ignore
// their percent, so only the other branch is checked.
func check(item model.Dataset, entry model.ProgressEntry) []string {
	if advances(item, entry) {
		return nil
	}
	var msgs []string
	if p := entry.Percent; math.IsNaN(p) || p < 0 || p > 1 {
		msgs = append(msgs, msgPercentClamped)
	}
	if entry.State != nil && *entry.State < item.State {
		msgs = append(msgs, msgStaleState)
	}
	return msgs
}

// percentToProgress rounds a fraction to a percentage in [0, 100]. NaN is 0.
func percentToProgress(percent float64) int {
	switch {
	case math.IsNaN(percent), percent < 0:
		return 0
	case percent > 1:
		return 100
	}
	return int(math.Round(percent * 100))
}
