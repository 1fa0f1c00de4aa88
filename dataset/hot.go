package dataset

import (
	"context"
	"strconv"
	"strings"

	"github.com/on-the-ground/ymir_dataset/effects/binding"
	"github.com/on-the-ground/ymir_dataset/effects/configkeys"
	"github.com/on-the-ground/ymir_dataset/effects/gateway"
	"github.com/on-the-ground/ymir_dataset/effects/log"
	"github.com/on-the-ground/ymir_dataset/effects/notify"
	"github.com/on-the-ground/ymir_dataset/model"
)

// DefaultHotLimit is the ranking size when neither the caller nor the
// binding effect gives one.
const DefaultHotLimit = 8

// GetHotDatasets ranks datasets by reference count.
//
// The ranking comes from the stats call; the details from one batch call
// for the ranked ids. A failed stats call is notified and returned. A
// failed or empty batch call yields an empty ranking and no error. The
// result is never nil.
func GetHotDatasets(ctx context.Context, limit int) ([]model.HotRankingEntry, error) {
	if limit <= 0 {
		limit = binding.GetOr(ctx, configkeys.DatasetHotLimit, DefaultHotLimit)
	}

	pairs, err := gateway.GetDatasetStats(ctx, limit)
	if err != nil {
		notify.Effect(ctx, string(ActionGetHotDatasets), err)
		return []model.HotRankingEntry{}, err
	}
	if len(pairs) == 0 {
		return []model.HotRankingEntry{}, nil
	}

	ids := JoinIDs(pairs)
	details, err := gateway.BatchDatasets(ctx, ids)
	if err != nil || len(details) == 0 {
		log.Effect(ctx, log.LogWarn, "no details for hot datasets", map[string]interface{}{
			"ids":   ids,
			"error": err,
		})
		return []model.HotRankingEntry{}, nil
	}
	if len(details) != len(pairs) {
		log.Effect(ctx, log.LogWarn, "hot dataset details do not match ranking", map[string]interface{}{
			"ids":     ids,
			"ranked":  len(pairs),
			"details": len(details),
		})
	}
	return ComposeHotRanking(pairs, details), nil
}

// JoinIDs returns the ids of pairs, in rank order, joined by commas.
func JoinIDs(pairs []model.RankedPair) string {
	ids := make([]string, len(pairs))
	for i, p := range pairs {
		ids[i] = strconv.Itoa(p.ID)
	}
	return strings.Join(ids, ",")
}

// ComposeHotRanking zips pairs and details by position. details[i] is
// taken to be the dataset of pairs[i]; positions missing on either side
// are dropped.
func ComposeHotRanking(pairs []model.RankedPair, details []model.Dataset) []model.HotRankingEntry {
	n := min(len(pairs), len(details))
	entries := make([]model.HotRankingEntry, n)
	for i := range n {
		entries[i] = model.HotRankingEntry{Dataset: details[i], Count: pairs[i].Count}
	}
	return entries
}
