package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "SPECTECH_APP_ENV"
	EnvDBDSN  = "SPECTECH_DB_DSN"
	EnvDBHost = "SPECTECH_DB_HOST"
	EnvDBUser = "SPECTECH_DB_USER"
	EnvDBName = "SPECTECH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Listing      ListingConfig
	Stripe       StripeConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"SPECTECH_APP_ENV" required:"true"`
	Port         string `envconfig:"SPECTECH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SPECTECH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SPECTECH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SPECTECH_DB_DSN"`
	Driver string `envconfig:"SPECTECH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SPECTECH_DB_HOST"`
	LegacyPort     int    `envconfig:"SPECTECH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SPECTECH_DB_USER"`
	LegacyPassword string `envconfig:"SPECTECH_DB_PASSWORD"`
	LegacyName     string `envconfig:"SPECTECH_DB_NAME"`
	LegacySSLMode  string `envconfig:"SPECTECH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SPECTECH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SPECTECH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SPECTECH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SPECTECH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SPECTECH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SPECTECH_REDIS_ADDR"`
	Password     string        `envconfig:"SPECTECH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SPECTECH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SPECTECH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SPECTECH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SPECTECH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SPECTECH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SPECTECH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SPECTECH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SPECTECH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SPECTECH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SPECTECH_AUTO_MIGRATE" default:"false"`
}

// ListingConfig carries the fixed business-listing fee charged before a
// business can be approved.
type ListingConfig struct {
	FeeAmountCents int64  `envconfig:"SPECTECH_LISTING_FEE_CENTS" default:"9900"`
	FeeCurrency    string `envconfig:"SPECTECH_LISTING_FEE_CURRENCY" default:"usd"`
	TaxRateBasis   int64  `envconfig:"SPECTECH_LISTING_TAX_RATE_BPS" default:"0"`
}

type StripeConfig struct {
	APIKey        string        `envconfig:"SPECTECH_STRIPE_API_KEY"`
	Secret        string        `envconfig:"SPECTECH_STRIPE_WEBHOOK_SECRET"`
	Env           string        `envconfig:"SPECTECH_STRIPE_ENV" default:"test"`
	CallTimeout   time.Duration `envconfig:"SPECTECH_STRIPE_CALL_TIMEOUT" default:"10s"`
	EventGuardTTL time.Duration `envconfig:"SPECTECH_STRIPE_EVENT_GUARD_TTL" default:"72h"`
	IntentLockTTL time.Duration `envconfig:"SPECTECH_STRIPE_INTENT_LOCK_TTL" default:"8s"`
	StatementName string        `envconfig:"SPECTECH_STRIPE_STATEMENT_NAME" default:"SPECTECH LISTING"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// RateLimitConfig bounds unauthenticated endpoints per client IP.
type RateLimitConfig struct {
	WebhookLimit  int64         `envconfig:"SPECTECH_RATE_LIMIT_WEBHOOK" default:"300"`
	WebhookWindow time.Duration `envconfig:"SPECTECH_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	PublicLimit   int64         `envconfig:"SPECTECH_RATE_LIMIT_PUBLIC" default:"600"`
	PublicWindow  time.Duration `envconfig:"SPECTECH_RATE_LIMIT_PUBLIC_WINDOW" default:"1m"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"SPECTECH_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"SPECTECH_PUBSUB_DOMAIN_TOPIC" default:"spectech-domain-events"`
	DomainSubscription string `envconfig:"SPECTECH_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SPECTECH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SPECTECH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SPECTECH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// CronConfig drives the scheduled maintenance worker.
type CronConfig struct {
	Interval                  time.Duration `envconfig:"SPECTECH_CRON_INTERVAL" default:"1h"`
	NotificationRetentionDays int           `envconfig:"SPECTECH_CRON_NOTIFICATION_RETENTION_DAYS" default:"30"`
	OutboxRetentionDays       int           `envconfig:"SPECTECH_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	PaymentReconcileMaxAge    time.Duration `envconfig:"SPECTECH_CRON_PAYMENT_RECONCILE_MAX_AGE" default:"1h"`
	PaymentReconcileLimit     int           `envconfig:"SPECTECH_CRON_PAYMENT_RECONCILE_LIMIT" default:"100"`
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
