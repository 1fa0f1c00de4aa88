// Package gatewaytest provides a scriptable gateway.Client for tests.
package gatewaytest

import (
	"context"
	"errors"
	"sync"

	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/model"
)

// ErrNotScripted is returned by operations the test left unset.
var ErrNotScripted = errors.New("gatewaytest: operation not scripted")

// Call records one operation received by Client.
type Call struct {
	Op  string
	Arg any
}

// Client answers each operation with the function set for it and records
// every call in order.
type Client struct {
	ListDatasetsFn         func(model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error)
	GetDatasetFn           func(int) (gateway.Envelope[model.Dataset], error)
	BatchDatasetsFn        func(string) (gateway.Envelope[[]model.Dataset], error)
	DeleteDatasetFn        func(int) (gateway.Envelope[model.Dataset], error)
	CreateDatasetFn        func(model.CreateDatasetParams) (gateway.Envelope[model.Dataset], error)
	UpdateDatasetFn        func(model.UpdateDatasetParams) (gateway.Envelope[model.Dataset], error)
	ListAssetsFn           func(model.AssetQuery) (gateway.Envelope[model.AssetCollection], error)
	GetAssetFn             func(string) (gateway.Envelope[model.Asset], error)
	ListInternalDatasetsFn func(model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error)
	GetDatasetStatsFn      func(int) (gateway.Envelope[[]model.RankedPair], error)

	mu    sync.Mutex
	calls []Call
}

var _ gateway.Client = (*Client)(nil)

// Ok wraps result in a success envelope.
func Ok[T any](result T) (gateway.Envelope[T], error) {
	return gateway.Envelope[T]{Code: 0, Result: result}, nil
}

// Fail returns an envelope carrying a non-zero code.
func Fail[T any](code int, message string) (gateway.Envelope[T], error) {
	return gateway.Envelope[T]{Code: code, Message: message}, nil
}

// Calls returns the calls received so far.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Ops returns the operation names received so far.
func (c *Client) Ops() []string {
	calls := c.Calls()
	ops := make([]string, 0, len(calls))
	for _, call := range calls {
		ops = append(ops, call.Op)
	}
	return ops
}

func (c *Client) record(op string, arg any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, Call{Op: op, Arg: arg})
}

func answer[A any, T any](ctx context.Context, fn func(A) (gateway.Envelope[T], error), arg A) (gateway.Envelope[T], error) {
	if err := ctx.Err(); err != nil {
		return gateway.Envelope[T]{}, err
	}
	if fn == nil {
		return gateway.Envelope[T]{}, ErrNotScripted
	}
	return fn(arg)
}

func (c *Client) ListDatasets(ctx context.Context, query model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error) {
	c.record("ListDatasets", query)
	return answer(ctx, c.ListDatasetsFn, query)
}

func (c *Client) GetDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	c.record("GetDataset", id)
	return answer(ctx, c.GetDatasetFn, id)
}

func (c *Client) BatchDatasets(ctx context.Context, ids string) (gateway.Envelope[[]model.Dataset], error) {
	c.record("BatchDatasets", ids)
	return answer(ctx, c.BatchDatasetsFn, ids)
}

func (c *Client) DeleteDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	c.record("DeleteDataset", id)
	return answer(ctx, c.DeleteDatasetFn, id)
}

func (c *Client) CreateDataset(ctx context.Context, params model.CreateDatasetParams) (gateway.Envelope[model.Dataset], error) {
	c.record("CreateDataset", params)
	return answer(ctx, c.CreateDatasetFn, params)
}

func (c *Client) UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (gateway.Envelope[model.Dataset], error) {
	c.record("UpdateDataset", params)
	return answer(ctx, c.UpdateDatasetFn, params)
}

func (c *Client) ListAssets(ctx context.Context, query model.AssetQuery) (gateway.Envelope[model.AssetCollection], error) {
	c.record("ListAssets", query)
	return answer(ctx, c.ListAssetsFn, query)
}

func (c *Client) GetAsset(ctx context.Context, hash string) (gateway.Envelope[model.Asset], error) {
	c.record("GetAsset", hash)
	return answer(ctx, c.GetAssetFn, hash)
}

func (c *Client) ListInternalDatasets(ctx context.Context, query model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error) {
	c.record("ListInternalDatasets", query)
	return answer(ctx, c.ListInternalDatasetsFn, query)
}

func (c *Client) GetDatasetStats(ctx context.Context, limit int) (gateway.Envelope[[]model.RankedPair], error) {
	c.record("GetDatasetStats", limit)
	return answer(ctx, c.GetDatasetStatsFn, limit)
}
