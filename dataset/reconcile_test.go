package dataset_test

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/on-the-ground/ymir_dataset/dataset"
	"github.com/on-the-ground/ymir_dataset/effects/gateway/gatewaytest"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/store"
	"github.com/on-the-ground/ymir_dataset/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainingSets() model.DatasetCollection {
	return model.DatasetCollection{
		Items: []model.Dataset{
			{ID: 34, Hash: "hash1", State: 2, Progress: 20},
			{ID: 35, Hash: "hash2", State: 3, Progress: 100},
			{ID: 36, Hash: "hash3", State: 2, Progress: 96},
		},
		Total: 3,
	}
}

func TestReconcile_MergesProgressByHash(t *testing.T) {
	update := model.ProgressUpdate{
		"hash1": {ID: 34, State: model.StateOf(2), Percent: 0.45},
		"hash3": {ID: 36, State: model.StateOf(3), Percent: 1},
	}

	got := dataset.Reconcile(trainingSets(), update)

	assert.Equal(t, []model.Dataset{
		{ID: 34, Hash: "hash1", State: 2, Progress: 45},
		{ID: 35, Hash: "hash2", State: 3, Progress: 100},
		{ID: 36, Hash: "hash3", State: 3, Progress: 100, ForceUpdate: true},
	}, got.Items)
	assert.Equal(t, 3, got.Total)
}

func TestReconcile_EmptyUpdateIsIdempotent(t *testing.T) {
	for name, update := range map[string]model.ProgressUpdate{
		"nil":   nil,
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			once := dataset.Reconcile(trainingSets(), update)
			twice := dataset.Reconcile(once, update)
			assert.Equal(t, trainingSets(), once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestReconcile_StaleStateNeitherForcesNorDowngrades(t *testing.T) {
	coll := model.DatasetCollection{
		Items: []model.Dataset{{ID: 1, Hash: "h", State: 3, Progress: 100}},
		Total: 10,
	}

	behind := dataset.Reconcile(coll, model.ProgressUpdate{"h": {ID: 1, State: model.StateOf(2), Percent: 0.3}})
	assert.Equal(t, model.Dataset{ID: 1, Hash: "h", State: 3, Progress: 30}, behind.Items[0])

	equal := dataset.Reconcile(coll, model.ProgressUpdate{"h": {ID: 1, State: model.StateOf(3), Percent: 0.5}})
	assert.Equal(t, model.Dataset{ID: 1, Hash: "h", State: 3, Progress: 50}, equal.Items[0])

	noState := dataset.Reconcile(coll, model.ProgressUpdate{"h": {ID: 1, Percent: 0.125}})
	assert.Equal(t, model.Dataset{ID: 1, Hash: "h", State: 3, Progress: 13}, noState.Items[0])

	assert.Equal(t, 10, noState.Total)
}

func TestReconcile_ForcedAdvanceIgnoresPercent(t *testing.T) {
	coll := model.DatasetCollection{Items: []model.Dataset{{ID: 1, Hash: "h", State: 2, Progress: 5}}, Total: 1}

	got := dataset.Reconcile(coll, model.ProgressUpdate{"h": {State: model.StateOf(4), Percent: 0.1}})

	assert.Equal(t, model.Dataset{ID: 1, Hash: "h", State: 4, Progress: 100, ForceUpdate: true}, got.Items[0])
}

func TestReconcile_UnknownHashIgnored(t *testing.T) {
	got := dataset.Reconcile(trainingSets(), model.ProgressUpdate{
		"missing": {ID: 99, State: model.StateOf(4), Percent: 1},
	})

	assert.Equal(t, trainingSets(), got)
}

func TestReconcile_ClampsPercent(t *testing.T) {
	coll := model.DatasetCollection{Items: []model.Dataset{
		{Hash: "low", State: 2},
		{Hash: "high", State: 2},
		{Hash: "nan", State: 2, Progress: 40},
	}}

	got := dataset.Reconcile(coll, model.ProgressUpdate{
		"low":  {Percent: -0.2},
		"high": {Percent: 1.7},
		"nan":  {Percent: math.NaN()},
	})

	assert.Equal(t, 0, got.Items[0].Progress)
	assert.Equal(t, 100, got.Items[1].Progress)
	assert.Equal(t, 0, got.Items[2].Progress)
}

func TestReconcile_DoesNotMutateInput(t *testing.T) {
	coll := trainingSets()

	_ = dataset.Reconcile(coll, model.ProgressUpdate{"hash1": {Percent: 0.9}})

	assert.Equal(t, trainingSets(), coll)
}

func TestUpdateDatasets_PutsMergedCollection(t *testing.T) {
	f := newFixture(t, &gatewaytest.Client{}, map[store.Slice]any{
		dataset.SliceDatasets: trainingSets(),
	}, nil)

	merged, err := dataset.UpdateDatasets(f.ctx, model.ProgressUpdate{
		"hash1": {ID: 34, State: model.StateOf(2), Percent: 0.45},
	})
	require.NoError(t, err)
	assert.Equal(t, 45, merged.Items[0].Progress)

	stored, err := store.Select[model.DatasetCollection](f.ctx, dataset.SliceDatasets)
	require.NoError(t, err)
	assert.Equal(t, merged, stored)
	assert.Equal(t, []store.Slice{dataset.SliceDatasets}, f.writes())
	assert.Empty(t, f.client.Calls())
}

func TestUpdateDatasets_EmptyUpdateStillPuts(t *testing.T) {
	f := newFixture(t, &gatewaytest.Client{}, map[store.Slice]any{
		dataset.SliceDatasets: trainingSets(),
	}, nil)

	merged, err := dataset.UpdateDatasets(f.ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, trainingSets(), merged)
	assert.Equal(t, []store.Slice{dataset.SliceDatasets}, f.writes())
}

func TestUpdateDatasets_AbsentSliceReconcilesEmpty(t *testing.T) {
	f := newFixture(t, &gatewaytest.Client{}, nil, nil)

	merged, err := dataset.UpdateDatasets(f.ctx, model.ProgressUpdate{"hash1": {Percent: 0.5}})
	require.NoError(t, err)
	assert.Empty(t, merged.Items)
	assert.Zero(t, merged.Total)

	_, err = store.Select[model.DatasetCollection](f.ctx, dataset.SliceDatasets)
	assert.NoError(t, err)
}

func TestUpdateDatasets_ConcurrentCallsKeepCollectionWhole(t *testing.T) {
	f := newFixture(t, &gatewaytest.Client{}, map[store.Slice]any{
		dataset.SliceDatasets: trainingSets(),
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := dataset.UpdateDatasets(f.ctx, model.ProgressUpdate{
				"hash1": {Percent: float64(i) / 100},
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := store.Select[model.DatasetCollection](f.ctx, dataset.SliceDatasets)
	require.NoError(t, err)
	require.Len(t, stored.Items, 3)
	assert.Equal(t, 3, stored.Total)
	assert.Less(t, stored.Items[0].Progress, 20)
	assert.Equal(t, trainingSets().Items[1:], stored.Items[1:])
}

func TestUpdateDatasets_WarnsOnlyForCorrectedEntries(t *testing.T) {
	f := newFixture(t, &gatewaytest.Client{}, map[store.Slice]any{
		dataset.SliceDatasets: trainingSets(),
	}, nil)

	merged, err := dataset.UpdateDatasets(f.ctx, model.ProgressUpdate{
		"missing": {ID: 99, Percent: 5},
		"hash3":   {ID: 36, State: model.StateOf(4), Percent: 7},
		"hash1":   {ID: 34, Percent: 1.5},
		"hash2":   {ID: 35, State: model.StateOf(2), Percent: 0.5},
	})
	require.NoError(t, err)
	assert.Equal(t, []model.Dataset{
		{ID: 34, Hash: "hash1", State: 2, Progress: 100},
		{ID: 35, Hash: "hash2", State: 3, Progress: 50},
		{ID: 36, Hash: "hash3", State: 4, Progress: 100, ForceUpdate: true},
	}, merged.Items)

	// Log entries are written in order; once this one is in, so are the warnings.
	log.Effect(f.ctx, log.LogDebug, "reconciled", nil)
	require.Eventually(t, func() bool {
		return f.logs.FilterMessage("reconciled").Len() == 1
	}, time.Second, 10*time.Millisecond)

	clamped := f.logs.FilterMessage("progress percent out of range, clamped").All()
	require.Len(t, clamped, 1)
	assert.Equal(t, "hash1", clamped[0].ContextMap()["hash"])

	stale := f.logs.FilterMessage("progress state behind stored state, kept stored state").All()
	require.Len(t, stale, 1)
	assert.Equal(t, "hash2", stale[0].ContextMap()["hash"])
}
