package config

const EnvPrefix = "DESIGNCRAFT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "DESIGNCRAFT_APP_ENV"
	EnvPort     = "DESIGNCRAFT_APP_PORT"
	EnvLogLevel = "DESIGNCRAFT_LOG_LEVEL"

	EnvStorageDriver = "DESIGNCRAFT_STORAGE_DRIVER"
	EnvStorageDir    = "DESIGNCRAFT_STORAGE_DIR"

	EnvDBDSN    = "DESIGNCRAFT_DB_DSN"
	EnvDBDriver = "DESIGNCRAFT_DB_DRIVER"

	EnvRedisURL  = "DESIGNCRAFT_REDIS_URL"
	EnvRedisAddr = "DESIGNCRAFT_REDIS_ADDR"

	EnvStripeAPIKey     = "DESIGNCRAFT_STRIPE_API_KEY"
	EnvStripeSecret     = "DESIGNCRAFT_STRIPE_SECRET"
	EnvStripeEnv        = "DESIGNCRAFT_STRIPE_ENV"
	EnvStripeSuccessURL = "DESIGNCRAFT_STRIPE_SUCCESS_URL"
	EnvStripeCancelURL  = "DESIGNCRAFT_STRIPE_CANCEL_URL"

	EnvPrintfulBaseURL = "DESIGNCRAFT_PRINTFUL_BASE_URL"
	EnvPrintfulAPIKey  = "DESIGNCRAFT_PRINTFUL_API_KEY"
)
