package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/ymir_dataset/model"
)

var (
	// ErrTransport marks failures to reach the backend or decode its answer.
	ErrTransport = errors.New("gateway transport failure")

	// ErrApplication marks envelopes carrying a non-zero code.
	ErrApplication = errors.New("gateway application failure")
)

// Envelope is the {code, message, result} wrapper of every backend answer.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Result  T      `json:"result"`
}

// APIError is a non-zero envelope code. It matches ErrApplication.
type APIError struct {
	Op      string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: code %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: code %d: %s", e.Op, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrApplication
}

// Client is the backend the gateway effect forwards to.
//
// An error return means the envelope never arrived; a delivered envelope
// with a non-zero Code is returned with a nil error.
type Client interface {
	ListDatasets(ctx context.Context, query model.DatasetQuery) (Envelope[model.DatasetCollection], error)
	GetDataset(ctx context.Context, id int) (Envelope[model.Dataset], error)
	// BatchDatasets takes the comma-joined id list as is.
	BatchDatasets(ctx context.Context, ids string) (Envelope[[]model.Dataset], error)
	DeleteDataset(ctx context.Context, id int) (Envelope[model.Dataset], error)
	CreateDataset(ctx context.Context, params model.CreateDatasetParams) (Envelope[model.Dataset], error)
	UpdateDataset(ctx context.Context, params model.UpdateDatasetParams) (Envelope[model.Dataset], error)
	ListAssets(ctx context.Context, query model.AssetQuery) (Envelope[model.AssetCollection], error)
	GetAsset(ctx context.Context, hash string) (Envelope[model.Asset], error)
	ListInternalDatasets(ctx context.Context, query model.DatasetQuery) (Envelope[model.DatasetCollection], error)
	GetDatasetStats(ctx context.Context, limit int) (Envelope[[]model.RankedPair], error)
}
