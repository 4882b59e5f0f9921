package constants

const (
	EnvLogLevel   = "BASIC_CLEANING_LOG_LEVEL"
	EnvConfigPath = "BASIC_CLEANING_CONFIG"
	EnvStoreRoot  = "BASIC_CLEANING_STORE_ROOT"
)
