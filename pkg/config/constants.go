package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "maplewood"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                 = "MAPLEWOOD_APP_ENV"
	EnvPort                   = "MAPLEWOOD_APP_PORT"
	EnvDBDSN                  = "MAPLEWOOD_DB_DSN"
	EnvDBHost                 = "MAPLEWOOD_DB_HOST"
	EnvDBUser                 = "MAPLEWOOD_DB_USER"
	EnvDBName                 = "MAPLEWOOD_DB_NAME"
	EnvRedisURL               = "MAPLEWOOD_REDIS_URL"
	EnvJWTSecret              = "MAPLEWOOD_JWT_SECRET"
	EnvJWTIssuer              = "MAPLEWOOD_JWT_ISSUER"
	EnvJWTExpMins             = "MAPLEWOOD_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "MAPLEWOOD_REFRESH_TOKEN_TTL_MINUTES"
	EnvGCPProjectID           = "MAPLEWOOD_GCP_PROJECT_ID"
	EnvOrderAllowedStatuses   = "MAPLEWOOD_ORDER_ALLOWED_STATUSES"
	EnvSMTPHost               = "MAPLEWOOD_SMTP_HOST"
	EnvStoreOwnerEmail        = "MAPLEWOOD_STORE_OWNER_EMAIL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
