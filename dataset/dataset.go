// Package dataset holds the dataset effects: the pass-through calls to the
// backend, progress reconciliation and the hot ranking.
//
// Every function performs its work through the effect handlers registered
// in ctx: gateway, store, notify and log. A failed backend call is reported
// through the notify effect and returned; it never touches the store.
package dataset

import (
	"context"

	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/notify"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/model"
)

// Store slices owned by the dataset effects.
const (
	SliceDatasets       store.Slice = "datasets"
	SliceDataset        store.Slice = "dataset"
	SliceAssets         store.Slice = "assets"
	SliceAsset          store.Slice = "asset"
	SlicePublicDatasets store.Slice = "publicDatasets"
)

// GetDatasets lists datasets and replaces the datasets slice.
func GetDatasets(ctx context.Context, query model.DatasetQuery) (*model.DatasetCollection, error) {
	return passThrough(ctx, ActionGetDatasets, SliceDatasets,
		func(ctx context.Context) (model.DatasetCollection, error) {
			return gateway.ListDatasets(ctx, query)
		},
		identity[model.DatasetCollection],
	)
}

// GetDataset fetches one dataset and replaces the dataset slice.
func GetDataset(ctx context.Context, id int) (*model.Dataset, error) {
	return passThrough(ctx, ActionGetDataset, SliceDataset,
		func(ctx context.Context) (model.Dataset, error) {
			return gateway.GetDataset(ctx, id)
		},
		identity[model.Dataset],
	)
}

// BatchDatasets fetches the datasets of a comma-joined id list. The list
// is forwarded as is.
func BatchDatasets(ctx context.Context, ids string) ([]model.Dataset, error) {
	res, err := passThrough(ctx, ActionBatchDatasets, "",
		func(ctx context.Context) ([]model.Dataset, error) {
			return gateway.BatchDatasets(ctx, ids)
		},
		nil,
	)
	if err != nil {
		return nil, err
	}
	return *res, nil
}

// GetAssetsOfDataset lists the assets of a dataset and replaces the assets slice.
func GetAssetsOfDataset(ctx context.Context, query model.AssetQuery) (*model.AssetCollection, error) {
	return passThrough(ctx, ActionGetAssetsOfDataset, SliceAssets,
		func(ctx context.Context) (model.AssetCollection, error) {
			return gateway.ListAssets(ctx, query)
		},
		identity[model.AssetCollection],
	)
}

// GetAsset fetches one asset by hash and replaces the asset slice.
func GetAsset(ctx context.Context, hash string) (*model.Asset, error) {
	return passThrough(ctx, ActionGetAsset, SliceAsset,
		func(ctx context.Context) (model.Asset, error) {
			return gateway.GetAsset(ctx, hash)
		},
		identity[model.Asset],
	)
}

func DelDataset(ctx context.Context, id int) (*model.Dataset, error) {
	return passThrough(ctx, ActionDelDataset, "",
		func(ctx context.Context) (model.Dataset, error) {
			return gateway.DeleteDataset(ctx, id)
		},
		nil,
	)
}

func CreateDataset(ctx context.Context, params model.CreateDatasetParams) (*model.Dataset, error) {
	return passThrough(ctx, ActionCreateDataset, "",
		func(ctx context.Context) (model.Dataset, error) {
			return gateway.CreateDataset(ctx, params)
		},
		nil,
	)
}

func UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (*model.Dataset, error) {
	return passThrough(ctx, ActionUpdateDataset, "",
		func(ctx context.Context) (model.Dataset, error) {
			return gateway.UpdateDataset(ctx, params)
		},
		nil,
	)
}

// GetInternalDataset lists the public datasets. Only the items are kept in
// the publicDatasets slice; the whole collection is returned.
func GetInternalDataset(ctx context.Context, query model.DatasetQuery) (*model.DatasetCollection, error) {
	return passThrough(ctx, ActionGetInternalDataset, SlicePublicDatasets,
		func(ctx context.Context) (model.DatasetCollection, error) {
			return gateway.ListInternalDatasets(ctx, query)
		},
		func(c model.DatasetCollection) any { return c.Items },
	)
}

// passThrough performs call and, on success, puts project(result) into
// slice. An empty slice name or a nil project skips the store.
//
// On failure the error is notified and a nil result returned.
func passThrough[T any](
	ctx context.Context,
	action ActionType,
	slice store.Slice,
	call func(context.Context) (T, error),
	project func(T) any,
) (*T, error) {
	res, err := call(ctx)
	if err != nil {
		notify.Effect(ctx, string(action), err)
		return nil, err
	}
	if slice != "" && project != nil {
		if err := store.Put(ctx, slice, project(res)); err != nil {
			notify.Effect(ctx, string(action), err)
			return nil, err
		}
	}
	log.Effect(ctx, log.LogDebug, "effect done", map[string]interface{}{
		"effect": action,
		"slice":  slice,
	})
	return &res, nil
}

func identity[T any](v T) any { return v }
