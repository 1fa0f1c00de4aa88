package binding

import (
	"context"

	"github.com/on-the-ground/ymir_dataset/effects"
	"github.com/on-the-ground/ymir_dataset/shared/helper"
)

// GetFromBindingEffect fetches a typed value from the Binding effect using the provided key.
// Returns a zero value and error if the key is not found or the type is mismatched.
func GetFromBindingEffect[T any](ctx context.Context, key string) (T, error) {
	return helper.GetTypedValueOf[T](func() (any, error) {
		return Effect(ctx, key)
	})
}

// GetOr returns the bound value for key, or def when the key is unbound,
// mistyped, or no binding handler is registered at all.
func GetOr[T any](ctx context.Context, key string, def T) (val T) {
	defer func() {
		if r := recover(); r != nil {
			if !effects.IsMissingHandler(r) {
				panic(r)
			}
			val = def
		}
	}()
	v, err := GetFromBindingEffect[T](ctx, key)
	if err != nil {
		return def
	}
	return v
}
