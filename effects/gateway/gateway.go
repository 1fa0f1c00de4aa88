package gateway

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/on-the-ground/ymir_dataset/effects"
	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/model"
)

// WithEffectHandler registers a resumable gateway effect handler forwarding
// every call to client.
//
// Calls are partitioned by the resource they address, so calls for the same
// resource are answered in the order they were performed. The
// performer's context is the one handed to client.
func WithEffectHandler(
	ctx context.Context,
	bufferSize int,
	numWorkers int,
	client Client,
) (context.Context, func() context.Context) {
	return effects.WithResumablePartitionableEffectHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize, numWorkers),
		effectmodel.EffectGateway,
		func(handlerCtx context.Context, c call) (any, error) {
			res, err := c.do(c.callCtx, client)
			if err != nil {
				log.Effect(handlerCtx, log.LogDebug, "gateway call failed", map[string]interface{}{
					"op":    c.op,
					"key":   c.key,
					"error": err,
				})
			}
			return res, err
		},
	)
}

// call is the gateway effect payload.
type call struct {
	callCtx context.Context
	op      string
	key     string
	do      func(context.Context, Client) (any, error)
}

func (c call) PartitionKey() string { return c.key }

func perform[T any](
	ctx context.Context,
	op string,
	key string,
	fn func(context.Context, Client) (Envelope[T], error),
) (T, error) {
	var zero T
	res, err := effects.AwaitResumableEffect[call, any](ctx, effectmodel.EffectGateway, call{
		callCtx: ctx,
		op:      op,
		key:     key,
		do: func(ctx context.Context, client Client) (any, error) {
			env, err := fn(ctx, client)
			if err != nil {
				return nil, transportError(op, err)
			}
			if env.Code != 0 {
				return nil, &APIError{Op: op, Code: env.Code, Message: env.Message}
			}
			return env.Result, nil
		},
	})
	if err != nil {
		return zero, err
	}
	v, ok := res.(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected result type: %T", op, res)
	}
	return v, nil
}

func transportError(op string, err error) error {
	if errors.Is(err, ErrTransport) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransport, err)
}

func ListDatasets(ctx context.Context, query model.DatasetQuery) (model.DatasetCollection, error) {
	return perform(ctx, "listDatasets", "datasets/"+strconv.Itoa(query.ProjectID),
		func(ctx context.Context, c Client) (Envelope[model.DatasetCollection], error) {
			return c.ListDatasets(ctx, query)
		})
}

func GetDataset(ctx context.Context, id int) (model.Dataset, error) {
	return perform(ctx, "getDataset", "dataset/"+strconv.Itoa(id),
		func(ctx context.Context, c Client) (Envelope[model.Dataset], error) {
			return c.GetDataset(ctx, id)
		})
}

func BatchDatasets(ctx context.Context, ids string) ([]model.Dataset, error) {
	return perform(ctx, "batchDatasets", "batch/"+ids,
		func(ctx context.Context, c Client) (Envelope[[]model.Dataset], error) {
			return c.BatchDatasets(ctx, ids)
		})
}

// DeleteDataset shares the partition of GetDataset and UpdateDataset, so a
// read performed after a delete of the same id observes it.
func DeleteDataset(ctx context.Context, id int) (model.Dataset, error) {
	return perform(ctx, "deleteDataset", "dataset/"+strconv.Itoa(id),
		func(ctx context.Context, c Client) (Envelope[model.Dataset], error) {
			return c.DeleteDataset(ctx, id)
		})
}

func CreateDataset(ctx context.Context, params model.CreateDatasetParams) (model.Dataset, error) {
	return perform(ctx, "createDataset", "create/"+params.Name,
		func(ctx context.Context, c Client) (Envelope[model.Dataset], error) {
			return c.CreateDataset(ctx, params)
		})
}

func UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (model.Dataset, error) {
	return perform(ctx, "updateDataset", "dataset/"+strconv.Itoa(params.ID),
		func(ctx context.Context, c Client) (Envelope[model.Dataset], error) {
			return c.UpdateDataset(ctx, params)
		})
}

func ListAssets(ctx context.Context, query model.AssetQuery) (model.AssetCollection, error) {
	return perform(ctx, "listAssets", "assets/"+strconv.Itoa(query.DatasetID),
		func(ctx context.Context, c Client) (Envelope[model.AssetCollection], error) {
			return c.ListAssets(ctx, query)
		})
}

func GetAsset(ctx context.Context, hash string) (model.Asset, error) {
	return perform(ctx, "getAsset", "asset/"+hash,
		func(ctx context.Context, c Client) (Envelope[model.Asset], error) {
			return c.GetAsset(ctx, hash)
		})
}

func ListInternalDatasets(ctx context.Context, query model.DatasetQuery) (model.DatasetCollection, error) {
	return perform(ctx, "listInternalDatasets", "public",
		func(ctx context.Context, c Client) (Envelope[model.DatasetCollection], error) {
			return c.ListInternalDatasets(ctx, query)
		})
}

func GetDatasetStats(ctx context.Context, limit int) ([]model.RankedPair, error) {
	return perform(ctx, "getDatasetStats", "stats",
		func(ctx context.Context, c Client) (Envelope[[]model.RankedPair], error) {
			return c.GetDatasetStats(ctx, limit)
		})
}
