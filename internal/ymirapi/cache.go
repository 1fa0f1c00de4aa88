package ymirapi

import (
	"context"
	"strconv"

	ristretto "github.com/dgraph-io/ristretto/v2"
	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/model"
)

// CachedClient serves GetDataset and GetAsset from a ristretto cache.
// Only success envelopes are cached. DeleteDataset and UpdateDataset drop
// the cached dataset.
type CachedClient struct {
	gateway.Client
	cache *ristretto.Cache[string, any]
}

var _ gateway.Client = (*CachedClient)(nil)

// NewCachedClient wraps client with a cache holding up to maxEntries envelopes.
func NewCachedClient(client gateway.Client, maxEntries int64) (*CachedClient, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: max(maxEntries*10, 100),
		MaxCost:     max(maxEntries, 1),
		BufferItems: 64,

		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachedClient{Client: client, cache: cache}, nil
}

// Close releases the cache.
func (c *CachedClient) Close() {
	c.cache.Close()
}

func (c *CachedClient) GetDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	return cached(c, datasetKey(id), func() (gateway.Envelope[model.Dataset], error) {
		return c.Client.GetDataset(ctx, id)
	})
}

func (c *CachedClient) GetAsset(ctx context.Context, hash string) (gateway.Envelope[model.Asset], error) {
	return cached(c, "asset/"+hash, func() (gateway.Envelope[model.Asset], error) {
		return c.Client.GetAsset(ctx, hash)
	})
}

func (c *CachedClient) DeleteDataset(ctx context.Context, id int) (gateway.Envelope[model.Dataset], error) {
	defer c.cache.Del(datasetKey(id))
	return c.Client.DeleteDataset(ctx, id)
}

func (c *CachedClient) UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (gateway.Envelope[model.Dataset], error) {
	defer c.cache.Del(datasetKey(params.ID))
	return c.Client.UpdateDataset(ctx, params)
}

func cached[T any](c *CachedClient, key string, fetch func() (gateway.Envelope[T], error)) (gateway.Envelope[T], error) {
	if v, ok := c.cache.Get(key); ok {
		if env, ok := v.(gateway.Envelope[T]); ok {
			return env, nil
		}
	}
	env, err := fetch()
	if err != nil || env.Code != 0 {
		return env, err
	}
	c.cache.Set(key, env, 1)
	c.cache.Wait()
	return env, nil
}

func datasetKey(id int) string {
	return "dataset/" + strconv.Itoa(id)
}
