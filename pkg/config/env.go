package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so the prefix only matters for
// untagged fields.
const EnvPrefix = "SKILLHUNTER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:skillhunter.db?_foreign_keys=on"

	LocalStoreRedis = "redis"
	LocalStoreDB    = "db"
)

const (
	EnvAppEnv                  = "SKILLHUNTER_APP_ENV"
	EnvPort                    = "SKILLHUNTER_APP_PORT"
	EnvDBDSN                   = "SKILLHUNTER_DB_DSN"
	EnvDBHost                  = "SKILLHUNTER_DB_HOST"
	EnvDBUser                  = "SKILLHUNTER_DB_USER"
	EnvDBName                  = "SKILLHUNTER_DB_NAME"
	EnvRedisURL                = "SKILLHUNTER_REDIS_URL"
	EnvJWTSecret               = "SKILLHUNTER_JWT_SECRET"
	EnvJWTIssuer               = "SKILLHUNTER_JWT_ISSUER"
	EnvJWTExpMins              = "SKILLHUNTER_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "SKILLHUNTER_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite               = "SKILLHUNTER_USE_SQLITE"
	EnvCallTimeout             = "SKILLHUNTER_DATASERVICE_CALL_TIMEOUT"
	EnvCORSAllowedOrigins      = "SKILLHUNTER_CORS_ALLOWED_ORIGINS"
	EnvLocalStoreBackend       = "SKILLHUNTER_LOCAL_STORE_BACKEND"
	EnvGCPProjectID            = "SKILLHUNTER_GCP_PROJECT_ID"
	EnvPubSubConfirmationTopic = "SKILLHUNTER_PUBSUB_CONFIRMATION_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
