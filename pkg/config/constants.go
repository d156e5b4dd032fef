package config

const (
	EnvPrefix = "servio"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "SERVIO_APP_ENV"
	EnvPort     = "SERVIO_APP_PORT"
	EnvDBDSN    = "SERVIO_DB_DSN"
	EnvDBHost   = "SERVIO_DB_HOST"
	EnvDBUser   = "SERVIO_DB_USER"
	EnvDBName   = "SERVIO_DB_NAME"
	EnvRedisURL = "SERVIO_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
