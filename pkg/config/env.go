package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:storefront.db?_foreign_keys=on"
)

const (
	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"
	EnvDBDSN     = "STOREFRONT_DB_DSN"
	EnvDBDriver  = "STOREFRONT_DB_DRIVER"
	EnvDBHost    = "STOREFRONT_DB_HOST"
	EnvDBPort    = "STOREFRONT_DB_PORT"
	EnvDBUser    = "STOREFRONT_DB_USER"
	EnvDBPass    = "STOREFRONT_DB_PASSWORD"
	EnvDBName    = "STOREFRONT_DB_NAME"
	EnvUseSQLite = "STOREFRONT_USE_SQLITE"
	EnvRedisURL  = "STOREFRONT_REDIS_URL"
	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"
	EnvJWTExpMin = "STOREFRONT_JWT_EXPIRATION_MINUTES"

	EnvKafkaBrokers = "STOREFRONT_KAFKA_BROKERS"
	EnvCORSOrigins  = "STOREFRONT_CORS_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
