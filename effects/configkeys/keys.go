package configkeys

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigEffectPrefix = ConfigPrefix + delimiter + "effect"

	ConfigEffectStorePrefix     = ConfigEffectPrefix + delimiter + "store"
	ConfigEffectStoreBufferSize = ConfigEffectStorePrefix + delimiter + "buffer_size"
	ConfigEffectStoreNumWorkers = ConfigEffectStorePrefix + delimiter + "num_workers"

	ConfigEffectGatewayPrefix     = ConfigEffectPrefix + delimiter + "gateway"
	ConfigEffectGatewayBufferSize = ConfigEffectGatewayPrefix + delimiter + "buffer_size"
	ConfigEffectGatewayNumWorkers = ConfigEffectGatewayPrefix + delimiter + "num_workers"

	ConfigEffectLogPrefix     = ConfigEffectPrefix + delimiter + "log"
	ConfigEffectLogBufferSize = ConfigEffectLogPrefix + delimiter + "buffer_size"

	ConfigDatasetPrefix = ConfigPrefix + delimiter + "dataset"

	// DatasetHotLimit is the ranking size used when a caller asks for limit <= 0.
	DatasetHotLimit = ConfigDatasetPrefix + delimiter + "hot" + delimiter + "limit"

	ConfigProgressPrefix = ConfigPrefix + delimiter + "progress"

	// ProgressFlushInterval is the coalescing window of the progress feed (time.Duration).
	ProgressFlushInterval = ConfigProgressPrefix + delimiter + "flush_interval"
)
