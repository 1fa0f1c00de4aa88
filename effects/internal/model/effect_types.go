package effectmodel

import "errors"

type EffectEnum string

const (
	EffectLog         EffectEnum = "ymir_dataset_effect_enum_log"
	EffectConcurrency EffectEnum = "ymir_dataset_effect_enum_concurrency"
	EffectBinding     EffectEnum = "ymir_dataset_effect_enum_binding"
	EffectTask        EffectEnum = "ymir_dataset_effect_enum_task"
	EffectStore       EffectEnum = "ymir_dataset_effect_enum_store"
	EffectGateway     EffectEnum = "ymir_dataset_effect_enum_gateway"
	EffectNotify      EffectEnum = "ymir_dataset_effect_enum_notify"
)

var (
	ErrNoEffectHandler     = errors.New("no effect handler registered for this effect")
	ErrEffectHandlerClosed = errors.New("effect handler closed")
)

type EffectScopeConfig struct {
	BufferSize int // default: 1
	NumWorkers int // default: 1
}

func NewEffectScopeConfig(bufferSize int, numWorkers int) EffectScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if numWorkers <= 0 {
		numWorkers = 1
	}
	return EffectScopeConfig{
		BufferSize: bufferSize,
		NumWorkers: numWorkers,
	}
}

// Partitionable payloads are routed to a worker by their partition key.
// Payloads sharing a key are handled by the same worker, in arrival order.
type Partitionable interface {
	PartitionKey() string
}
