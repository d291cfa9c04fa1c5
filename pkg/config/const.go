package config

const (
	EnvPrefix = "SHIPSNAP"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	ModeLocalFirst = "local-first"
	ModeCloudFirst = "cloud-first"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	OCRStrategyRemote = "remote"
	OCRStrategyLocal  = "local"

	EnvAppEnv       = "SHIPSNAP_APP_ENV"
	EnvPort         = "SHIPSNAP_APP_PORT"
	EnvAppMode      = "SHIPSNAP_APP_MODE"
	EnvDBDriver     = "SHIPSNAP_DB_DRIVER"
	EnvDBDSN        = "SHIPSNAP_DB_DSN"
	EnvGCSBucket    = "SHIPSNAP_GCS_BUCKET_NAME"
	EnvGeminiAPIKey = "SHIPSNAP_GEMINI_API_KEY"
	EnvOCRStrategy  = "SHIPSNAP_OCR_STRATEGY"
)
