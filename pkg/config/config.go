package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "praco"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PRACO_DB_DSN"
	EnvDBHost = "PRACO_DB_HOST"
	EnvDBUser = "PRACO_DB_USER"
	EnvDBName = "PRACO_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	Password     PasswordConfig
	Cart         CartConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"PRACO_APP_ENV" required:"true"`
	Port         string `envconfig:"PRACO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"PRACO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRACO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type HTTPConfig struct {
	CORSOrigins       []string      `envconfig:"PRACO_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	WriteRateLimit    int64         `envconfig:"PRACO_HTTP_WRITE_RATE_LIMIT" default:"120"`
	WriteRateWindow   time.Duration `envconfig:"PRACO_HTTP_WRITE_RATE_WINDOW" default:"1m"`
	ShutdownTimeout   time.Duration `envconfig:"PRACO_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	ReadHeaderTimeout time.Duration `envconfig:"PRACO_HTTP_READ_HEADER_TIMEOUT" default:"5s"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRACO_DB_DSN"`
	Driver string `envconfig:"PRACO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRACO_DB_HOST"`
	LegacyPort     int    `envconfig:"PRACO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRACO_DB_USER"`
	LegacyPassword string `envconfig:"PRACO_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRACO_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRACO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRACO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRACO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRACO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRACO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRACO_REDIS_URL"`
	Address      string        `envconfig:"PRACO_REDIS_ADDR"`
	Password     string        `envconfig:"PRACO_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRACO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRACO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRACO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRACO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRACO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRACO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig carries the business defaults stamped onto newly provisioned carts.
type CartConfig struct {
	DefaultVATPercent      string `envconfig:"PRACO_CART_DEFAULT_VAT_PERCENT" default:"20"`
	DefaultDiscountPercent string `envconfig:"PRACO_CART_DEFAULT_DISCOUNT_PERCENT" default:"0"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRACO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRACO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRACO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRACO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRACO_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PRACO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PRACO_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRACO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PRACO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRACO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"PRACO_PUBSUB_ORDERS_TOPIC" default:"praco-order-events"`
	CatalogTopic       string `envconfig:"PRACO_PUBSUB_CATALOG_TOPIC" default:"praco-catalog-events"`
	OrdersSubscription string `envconfig:"PRACO_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	PollIntervalMS int           `envconfig:"PRACO_OUTBOX_POLL_INTERVAL_MS" default:"5000"`
	BatchSize      int           `envconfig:"PRACO_OUTBOX_BATCH_SIZE" default:"100"`
	MaxAttempts    int           `envconfig:"PRACO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int           `envconfig:"PRACO_OUTBOX_RETENTION_DAYS" default:"30"`
	IdempotencyTTL time.Duration `envconfig:"PRACO_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"PRACO_CRON_INTERVAL" default:"1h"`
	LockTTL              time.Duration `envconfig:"PRACO_CRON_LOCK_TTL" default:"55m"`
	RebalanceSweepWindow time.Duration `envconfig:"PRACO_CRON_REBALANCE_SWEEP_WINDOW" default:"24h"`
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
