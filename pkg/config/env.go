package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so
// the prefix only matters for fields without one.
const EnvPrefix = "TMS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Variables referenced in error messages and tests.
const (
	EnvAppEnv    = "TMS_APP_ENV"
	EnvPort      = "TMS_APP_PORT"
	EnvDBDSN     = "TMS_DB_DSN"
	EnvDBHost    = "TMS_DB_HOST"
	EnvDBUser    = "TMS_DB_USER"
	EnvDBName    = "TMS_DB_NAME"
	EnvDBPass    = "TMS_DB_PASSWORD"
	EnvRedisURL  = "TMS_REDIS_URL"
	EnvJWTSecret = "TMS_JWT_SECRET"
	EnvJWTIssuer = "TMS_JWT_ISSUER"
	EnvJWTExpMin = "TMS_JWT_EXPIRATION_MINUTES"

	EnvMaxActiveJobs         = "TMS_DISPATCH_MAX_ACTIVE_JOBS"
	EnvEligibilityPermission = "TMS_DISPATCH_ELIGIBILITY_PERMISSION"
)
