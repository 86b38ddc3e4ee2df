package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Leaderboard  LeaderboardConfig
	ChangeFeed   ChangeFeedConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BIDBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"BIDBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIDBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIDBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BIDBOARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BIDBOARD_DB_DSN"`
	Driver string `envconfig:"BIDBOARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIDBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"BIDBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIDBOARD_DB_USER"`
	LegacyPassword string `envconfig:"BIDBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIDBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIDBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIDBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIDBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIDBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIDBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIDBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BIDBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"BIDBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIDBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIDBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIDBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIDBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIDBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIDBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BIDBOARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BIDBOARD_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"BIDBOARD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"BIDBOARD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"BIDBOARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"BIDBOARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"BIDBOARD_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"BIDBOARD_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	NotificationTopic  string `envconfig:"BIDBOARD_PUBSUB_NOTIFICATION_TOPIC" default:"bb-notification-events"`
	NotificationSubscription string `envconfig:"BIDBOARD_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"BIDBOARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"BIDBOARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"BIDBOARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type LeaderboardConfig struct {
	CacheTTL time.Duration `envconfig:"BIDBOARD_LEADERBOARD_CACHE_TTL" default:"30s"`
}

type ChangeFeedConfig struct {
	SubscriberBuffer int `envconfig:"BIDBOARD_CHANGEFEED_SUBSCRIBER_BUFFER" default:"64"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
