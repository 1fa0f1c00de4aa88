package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/on-the-ground/ymir_dataset/effects/task"
)

var (
	ErrUnknownAction  = errors.New("unknown dataset action")
	ErrInvalidPayload = errors.New("invalid dataset action payload")
)

// ActionType names a dataset effect.
type ActionType string

const (
	ActionGetDatasets        ActionType = "getDatasets"
	ActionGetDataset         ActionType = "getDataset"
	ActionBatchDatasets      ActionType = "batchDatasets"
	ActionGetAssetsOfDataset ActionType = "getAssetsOfDataset"
	ActionGetAsset           ActionType = "getAsset"
	ActionDelDataset         ActionType = "delDataset"
	ActionCreateDataset      ActionType = "createDataset"
	ActionUpdateDataset      ActionType = "updateDataset"
	ActionGetInternalDataset ActionType = "getInternalDataset"
	ActionGetHotDatasets     ActionType = "getHotDatasets"
	ActionUpdateDatasets     ActionType = "updateDatasets"
)

// Action asks for one dataset effect. Payload holds the argument of the
// effect function: a query or params struct, an id (int), a hash or id list
// (string), a limit (int) or a model.ProgressUpdate. A nil Payload is the
// zero argument.
type Action struct {
	Type    ActionType
	Payload any
}

// Dispatch runs the effect named by action as a task and returns the
// channel its result arrives on. A task handler for results of type any
// must be registered in ctx.
func Dispatch(ctx context.Context, action Action) <-chan task.Result[any] {
	return task.Effect[any](ctx, func(ctx context.Context) (any, error) {
		return route(ctx, action)
	})
}

func route(ctx context.Context, action Action) (any, error) {
	switch action.Type {
	case ActionGetDatasets:
		return with(ctx, action, GetDatasets)
	case ActionGetDataset:
		return with(ctx, action, GetDataset)
	case ActionBatchDatasets:
		return with(ctx, action, BatchDatasets)
	case ActionGetAssetsOfDataset:
		return with(ctx, action, GetAssetsOfDataset)
	case ActionGetAsset:
		return with(ctx, action, GetAsset)
	case ActionDelDataset:
		return with(ctx, action, DelDataset)
	case ActionCreateDataset:
		return with(ctx, action, CreateDataset)
	case ActionUpdateDataset:
		return with(ctx, action, UpdateDataset)
	case ActionGetInternalDataset:
		return with(ctx, action, GetInternalDataset)
	case ActionGetHotDatasets:
		return with(ctx, action, GetHotDatasets)
	case ActionUpdateDatasets:
		return with(ctx, action, UpdateDatasets)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}
}

// with calls fn with the action payload as its argument. A failed call
// resumes with a nil value rather than a typed nil.
func with[A any, R any](ctx context.Context, action Action, fn func(context.Context, A) (R, error)) (any, error) {
	var arg A
	if action.Payload != nil {
		v, ok := action.Payload.(A)
		if !ok {
			return nil, fmt.Errorf("%w: %s wants %T, got %T", ErrInvalidPayload, action.Type, arg, action.Payload)
		}
		arg = v
	}
	res, err := fn(ctx, arg)
	if err != nil {
		return nil, err
	}
	return res, nil
}
