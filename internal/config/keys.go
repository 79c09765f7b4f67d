package config

const (
	delimiter = "."

	ConfigPrefix = "config"

	ConfigStorePrefix  = ConfigPrefix + delimiter + "store"
	ConfigStoreName    = ConfigStorePrefix + delimiter + "name"
	ConfigStoreMetrics = ConfigStorePrefix + delimiter + "metrics"

	ConfigLogPrefix            = ConfigPrefix + delimiter + "log"
	ConfigLogLevel             = ConfigLogPrefix + delimiter + "level"
	ConfigLogHandlerPrefix     = ConfigLogPrefix + delimiter + "handler"
	ConfigLogHandlerBufferSize = ConfigLogHandlerPrefix + delimiter + "buffer_size"

	ConfigBindingPrefix            = ConfigPrefix + delimiter + "binding"
	ConfigBindingHandlerPrefix     = ConfigBindingPrefix + delimiter + "handler"
	ConfigBindingHandlerBufferSize = ConfigBindingHandlerPrefix + delimiter + "buffer_size"
	ConfigBindingHandlerNumWorkers = ConfigBindingHandlerPrefix + delimiter + "num_workers"

	ConfigIDGenPrefix            = ConfigPrefix + delimiter + "idgen"
	ConfigIDGenHandlerPrefix     = ConfigIDGenPrefix + delimiter + "handler"
	ConfigIDGenHandlerBufferSize = ConfigIDGenHandlerPrefix + delimiter + "buffer_size"
)
