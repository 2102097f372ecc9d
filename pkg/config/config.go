package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	SMTP          SMTPConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"MAPLEWOOD_APP_ENV" required:"true"`
	Port         string `envconfig:"MAPLEWOOD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MAPLEWOOD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAPLEWOOD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MAPLEWOOD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MAPLEWOOD_DB_DSN"`
	Driver string `envconfig:"MAPLEWOOD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MAPLEWOOD_DB_HOST"`
	LegacyPort     int    `envconfig:"MAPLEWOOD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MAPLEWOOD_DB_USER"`
	LegacyPassword string `envconfig:"MAPLEWOOD_DB_PASSWORD"`
	LegacyName     string `envconfig:"MAPLEWOOD_DB_NAME"`
	LegacySSLMode  string `envconfig:"MAPLEWOOD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAPLEWOOD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAPLEWOOD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAPLEWOOD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAPLEWOOD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAPLEWOOD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MAPLEWOOD_REDIS_ADDR"`
	Password     string        `envconfig:"MAPLEWOOD_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAPLEWOOD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAPLEWOOD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAPLEWOOD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAPLEWOOD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAPLEWOOD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAPLEWOOD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"MAPLEWOOD_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"MAPLEWOOD_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"MAPLEWOOD_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"MAPLEWOOD_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MAPLEWOOD_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MAPLEWOOD_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MAPLEWOOD_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MAPLEWOOD_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MAPLEWOOD_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"MAPLEWOOD_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAPLEWOOD_AUTO_MIGRATE" default:"false"`
}

// OrdersConfig drives the status transition surface. AllowedStatuses is the
// subset the admin API accepts; the full set stays recognized server-side.
type OrdersConfig struct {
	AllowedStatuses []string      `envconfig:"MAPLEWOOD_ORDER_ALLOWED_STATUSES" default:"pending,confirmed,processing,shipped,out_for_delivery,delivered,cancelled,returned,refunded"`
	StoreTimeout    time.Duration `envconfig:"MAPLEWOOD_ORDER_STORE_TIMEOUT" default:"5s"`
}

type SMTPConfig struct {
	Host       string        `envconfig:"MAPLEWOOD_SMTP_HOST"`
	Port       int           `envconfig:"MAPLEWOOD_SMTP_PORT" default:"587"`
	Username   string        `envconfig:"MAPLEWOOD_SMTP_USERNAME"`
	Password   string        `envconfig:"MAPLEWOOD_SMTP_PASSWORD"`
	From       string        `envconfig:"MAPLEWOOD_SMTP_FROM" default:"orders@maplewood.example"`
	OwnerEmail string        `envconfig:"MAPLEWOOD_STORE_OWNER_EMAIL"`
	Timeout    time.Duration `envconfig:"MAPLEWOOD_SMTP_TIMEOUT" default:"5s"`
}

// Enabled reports whether a real SMTP transport is configured. When false the
// mailer degrades to structured log lines.
func (s SMTPConfig) Enabled() bool {
	return strings.TrimSpace(s.Host) != ""
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MAPLEWOOD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MAPLEWOOD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MAPLEWOOD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"MAPLEWOOD_PUBSUB_DOMAIN_TOPIC" default:"mw-domain-events"`
	DomainSubscription string `envconfig:"MAPLEWOOD_PUBSUB_DOMAIN_SUBSCRIPTION" default:"mw-domain-events-mail"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"MAPLEWOOD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"MAPLEWOOD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"MAPLEWOOD_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"MAPLEWOOD_OUTBOX_IDEMPOTENCY_TTL" default:"24h"`
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
