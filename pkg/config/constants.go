package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "bidboard"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv   = "BIDBOARD_APP_ENV"
	EnvPort     = "BIDBOARD_APP_PORT"
	EnvLogLevel = "BIDBOARD_LOG_LEVEL"

	EnvDBDSN  = "BIDBOARD_DB_DSN"
	EnvDBHost = "BIDBOARD_DB_HOST"
	EnvDBUser = "BIDBOARD_DB_USER"
	EnvDBName = "BIDBOARD_DB_NAME"

	EnvRedisURL = "BIDBOARD_REDIS_URL"

	EnvGCPProjectID = "BIDBOARD_GCP_PROJECT_ID"

	EnvPubSubDomainTopic        = "BIDBOARD_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSubscription = "BIDBOARD_PUBSUB_DOMAIN_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
