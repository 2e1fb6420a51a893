package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Storage      StorageConfig
	DB           DBConfig
	Redis        RedisConfig
	Stripe       StripeConfig
	Printful     PrintfulConfig
	Fit          FitConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DESIGNCRAFT_APP_ENV" required:"true"`
	Port         string `envconfig:"DESIGNCRAFT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DESIGNCRAFT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DESIGNCRAFT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Storage drivers accepted by StorageConfig.Driver.
const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

type StorageConfig struct {
	Driver string `envconfig:"DESIGNCRAFT_STORAGE_DRIVER" default:"memory"`
	Dir    string `envconfig:"DESIGNCRAFT_STORAGE_DIR" default:"./data"`
}

// NormalizedDriver lowercases the configured driver.
func (s StorageConfig) NormalizedDriver() string {
	driver := strings.TrimSpace(strings.ToLower(s.Driver))
	if driver == "" {
		return StorageMemory
	}
	return driver
}

// UsesSQL reports whether the driver keeps its data in a SQL database.
func (s StorageConfig) UsesSQL() bool {
	switch s.NormalizedDriver() {
	case StoragePostgres, StorageSQLite:
		return true
	}
	return false
}

type DBConfig struct {
	DSN    string `envconfig:"DESIGNCRAFT_DB_DSN"`
	Driver string `envconfig:"DESIGNCRAFT_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"DESIGNCRAFT_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"DESIGNCRAFT_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DESIGNCRAFT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DESIGNCRAFT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DESIGNCRAFT_REDIS_URL"`
	Address      string        `envconfig:"DESIGNCRAFT_REDIS_ADDR"`
	Password     string        `envconfig:"DESIGNCRAFT_REDIS_PASSWORD"`
	DB           int           `envconfig:"DESIGNCRAFT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DESIGNCRAFT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DESIGNCRAFT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DESIGNCRAFT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DESIGNCRAFT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DESIGNCRAFT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StripeConfig struct {
	APIKey         string `envconfig:"DESIGNCRAFT_STRIPE_API_KEY"`
	Secret         string `envconfig:"DESIGNCRAFT_STRIPE_SECRET"`
	Env            string `envconfig:"DESIGNCRAFT_STRIPE_ENV" default:"test"`
	Currency       string `envconfig:"DESIGNCRAFT_STRIPE_CURRENCY" default:"usd"`
	SuccessURL     string `envconfig:"DESIGNCRAFT_STRIPE_SUCCESS_URL" default:"http://localhost:3000/checkout/success?session_id={CHECKOUT_SESSION_ID}"`
	CancelURL      string `envconfig:"DESIGNCRAFT_STRIPE_CANCEL_URL" default:"http://localhost:3000/cart"`
	ProviderDomain string `envconfig:"DESIGNCRAFT_STRIPE_PROVIDER_DOMAIN" default:"stripe.com"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type PrintfulConfig struct {
	BaseURL            string        `envconfig:"DESIGNCRAFT_PRINTFUL_BASE_URL" default:"https://api.printful.com"`
	APIKey             string        `envconfig:"DESIGNCRAFT_PRINTFUL_API_KEY"`
	Timeout            time.Duration `envconfig:"DESIGNCRAFT_PRINTFUL_TIMEOUT" default:"15s"`
	MaxRetries         int           `envconfig:"DESIGNCRAFT_PRINTFUL_MAX_RETRIES" default:"3"`
	RetryDelay         time.Duration `envconfig:"DESIGNCRAFT_PRINTFUL_RETRY_DELAY" default:"1s"`
	BreakerFailures    uint32        `envconfig:"DESIGNCRAFT_PRINTFUL_BREAKER_FAILURES" default:"5"`
	BreakerTimeout     time.Duration `envconfig:"DESIGNCRAFT_PRINTFUL_BREAKER_TIMEOUT" default:"30s"`
	MockupPollInterval time.Duration `envconfig:"DESIGNCRAFT_PRINTFUL_MOCKUP_POLL_INTERVAL" default:"2s"`
}

type FitConfig struct {
	FixDelay time.Duration `envconfig:"DESIGNCRAFT_FIT_FIX_DELAY" default:"1500ms"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DESIGNCRAFT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

// RateLimitConfig bounds per-IP calls to endpoints that reach paid upstreams.
type RateLimitConfig struct {
	Window        time.Duration `envconfig:"DESIGNCRAFT_RATE_LIMIT_WINDOW" default:"1m"`
	CheckoutLimit int           `envconfig:"DESIGNCRAFT_RATE_LIMIT_CHECKOUT" default:"20"`
	KeyLimit      int           `envconfig:"DESIGNCRAFT_RATE_LIMIT_FULFILLMENT_KEY" default:"5"`
}

// SessionConfig bounds the in-memory session cache. Carts survive eviction
// in storage.
type SessionConfig struct {
	MaxSessions int           `envconfig:"DESIGNCRAFT_SESSION_MAX" default:"10000"`
	IdleTTL     time.Duration `envconfig:"DESIGNCRAFT_SESSION_IDLE_TTL" default:"30m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DESIGNCRAFT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookIdempotencyTTL time.Duration `envconfig:"DESIGNCRAFT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

func (c *Config) validate() error {
	switch c.Storage.NormalizedDriver() {
	case StorageMemory:
	case StorageFile:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			return fmt.Errorf("%s is required for the file storage driver", EnvStorageDir)
		}
	case StorageRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("either %s or %s is required for the redis storage driver", EnvRedisURL, EnvRedisAddr)
		}
	case StoragePostgres, StorageSQLite:
		if strings.TrimSpace(c.DB.DSN) == "" {
			return fmt.Errorf("%s is required for the %s storage driver", EnvDBDSN, c.Storage.NormalizedDriver())
		}
		c.DB.Driver = c.Storage.NormalizedDriver()
	default:
		return fmt.Errorf("%s must be one of memory, file, redis, postgres, sqlite (got %q)", EnvStorageDriver, c.Storage.Driver)
	}
	return nil
}
