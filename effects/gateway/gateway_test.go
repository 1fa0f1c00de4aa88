package gateway_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/effects/gateway/gatewaytest"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withGateway(t *testing.T, client gateway.Client) context.Context {
	ctx, endOfLog := log.WithTestEffectHandler(context.Background())
	ctx, endOfGateway := gateway.WithEffectHandler(ctx, 4, 2, client)
	t.Cleanup(func() {
		endOfGateway()
		endOfLog()
	})
	return ctx
}

func TestGatewayEffect_ReturnsResultOfSuccessEnvelope(t *testing.T) {
	client := &gatewaytest.Client{
		GetDatasetFn: func(id int) (gateway.Envelope[model.Dataset], error) {
			return gatewaytest.Ok(model.Dataset{ID: id, Name: "dataset001"})
		},
		BatchDatasetsFn: func(ids string) (gateway.Envelope[[]model.Dataset], error) {
			return gatewaytest.Ok([]model.Dataset{{ID: 1}, {ID: 2}})
		},
	}
	ctx := withGateway(t, client)

	ds, err := gateway.GetDataset(ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, model.Dataset{ID: 1001, Name: "dataset001"}, ds)

	list, err := gateway.BatchDatasets(ctx, "1,2")
	require.NoError(t, err)
	assert.Len(t, list, 2)

	assert.Equal(t, []gatewaytest.Call{
		{Op: "GetDataset", Arg: 1001},
		{Op: "BatchDatasets", Arg: "1,2"},
	}, client.Calls())
}

func TestGatewayEffect_NonZeroCodeIsApplicationError(t *testing.T) {
	client := &gatewaytest.Client{
		DeleteDatasetFn: func(int) (gateway.Envelope[model.Dataset], error) {
			return gatewaytest.Fail[model.Dataset](110101, "dataset not found")
		},
	}
	ctx := withGateway(t, client)

	ds, err := gateway.DeleteDataset(ctx, 10001)
	assert.Zero(t, ds)
	assert.ErrorIs(t, err, gateway.ErrApplication)
	assert.NotErrorIs(t, err, gateway.ErrTransport)

	var apiErr *gateway.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "deleteDataset", apiErr.Op)
	assert.Equal(t, 110101, apiErr.Code)
	assert.Equal(t, "deleteDataset: code 110101: dataset not found", apiErr.Error())
}

func TestGatewayEffect_ClientErrorIsTransportError(t *testing.T) {
	client := &gatewaytest.Client{
		GetDatasetStatsFn: func(int) (gateway.Envelope[[]model.RankedPair], error) {
			return gateway.Envelope[[]model.RankedPair]{}, io.ErrUnexpectedEOF
		},
	}
	ctx := withGateway(t, client)

	pairs, err := gateway.GetDatasetStats(ctx, 3)
	assert.Nil(t, pairs)
	assert.ErrorIs(t, err, gateway.ErrTransport)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.NotErrorIs(t, err, gateway.ErrApplication)
}

func TestGatewayEffect_UnscriptedOperation(t *testing.T) {
	ctx := withGateway(t, &gatewaytest.Client{})

	_, err := gateway.GetAsset(ctx, "identify_hash_string")
	assert.ErrorIs(t, err, gatewaytest.ErrNotScripted)
	assert.ErrorIs(t, err, gateway.ErrTransport)
}

func TestGatewayEffect_CancelledCallerContext(t *testing.T) {
	client := &gatewaytest.Client{
		ListDatasetsFn: func(model.DatasetQuery) (gateway.Envelope[model.DatasetCollection], error) {
			return gatewaytest.Ok(model.DatasetCollection{Total: 1})
		},
	}
	ctx := withGateway(t, client)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	_, err := gateway.ListDatasets(cancelled, model.DatasetQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGatewayEffect_PanicsWithoutHandler(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = gateway.GetDataset(context.Background(), 1)
	})
}
