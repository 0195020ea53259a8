package config

// EnvPrefix is the envconfig prefix; every field carries its full variable name.
const EnvPrefix = "ESTATEHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	StorageDriverLocal = "local"
	StorageDriverGCS   = "gcs"
)

const (
	EnvAppEnv        = "ESTATEHUB_APP_ENV"
	EnvPort          = "ESTATEHUB_APP_PORT"
	EnvFrontendURL   = "ESTATEHUB_FRONTEND_URL"
	EnvDBDSN         = "ESTATEHUB_DB_DSN"
	EnvDBHost        = "ESTATEHUB_DB_HOST"
	EnvDBUser        = "ESTATEHUB_DB_USER"
	EnvDBName        = "ESTATEHUB_DB_NAME"
	EnvDBPassword    = "ESTATEHUB_DB_PASSWORD"
	EnvRedisURL      = "ESTATEHUB_REDIS_URL"
	EnvJWTSecret     = "ESTATEHUB_JWT_SECRET"
	EnvJWTIssuer     = "ESTATEHUB_JWT_ISSUER"
	EnvJWTExpMins    = "ESTATEHUB_JWT_EXPIRATION_MINUTES"
	EnvStorageDriver = "ESTATEHUB_STORAGE_DRIVER"
	EnvGCSBucket     = "ESTATEHUB_GCS_BUCKET_NAME"
	EnvPubSubTopic   = "ESTATEHUB_PUBSUB_LISTINGS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
