package helper

import (
	"context"
	"fmt"

	effectmodel "github.com/on-the-ground/ymir_dataset/effects/internal/model"
)

// GetHandler returns the handler registered in ctx for the given EffectEnum.
func GetHandler(ctx context.Context, enum effectmodel.EffectEnum) (any, error) {
	raw := ctx.Value(enum)
	if raw == nil {
		return nil, fmt.Errorf("%w: %v", effectmodel.ErrNoEffectHandler, enum)
	}
	return raw, nil
}
