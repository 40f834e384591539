package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "marketgh"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKETGH_DB_DSN"
	EnvDBHost = "MARKETGH_DB_HOST"
	EnvDBUser = "MARKETGH_DB_USER"
	EnvDBName = "MARKETGH_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Delivery     DeliveryConfig
	Rates        RatesConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"MARKETGH_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKETGH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MARKETGH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKETGH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKETGH_DB_DSN"`
	Driver string `envconfig:"MARKETGH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MARKETGH_DB_HOST"`
	LegacyPort     int    `envconfig:"MARKETGH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MARKETGH_DB_USER"`
	LegacyPassword string `envconfig:"MARKETGH_DB_PASSWORD"`
	LegacyName     string `envconfig:"MARKETGH_DB_NAME"`
	LegacySSLMode  string `envconfig:"MARKETGH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKETGH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKETGH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKETGH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKETGH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKETGH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MARKETGH_REDIS_ADDR"`
	Password     string        `envconfig:"MARKETGH_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKETGH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKETGH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKETGH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKETGH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKETGH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKETGH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKETGH_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKETGH_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MARKETGH_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKETGH_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the packaging-fee rate constants. Weight is per kg,
// volume per cubic meter; the two fees are summed per item.
type PricingConfig struct {
	PackagingWeightRate decimal.Decimal `envconfig:"MARKETGH_PACKAGING_WEIGHT_RATE" default:"1.0"`
	PackagingVolumeRate decimal.Decimal `envconfig:"MARKETGH_PACKAGING_VOLUME_RATE" default:"1.0"`
}

// DeliveryConfig holds delivery-fee tuning. The default coordinates point at
// Accra and are used whenever a buyer or vendor has no location on file.
type DeliveryConfig struct {
	DefaultLatitude   float64 `envconfig:"MARKETGH_DELIVERY_DEFAULT_LAT" default:"5.5600"`
	DefaultLongitude  float64 `envconfig:"MARKETGH_DELIVERY_DEFAULT_LNG" default:"-0.2050"`
	SameDayCutoffHour int     `envconfig:"MARKETGH_DELIVERY_SAME_DAY_CUTOFF_HOUR" default:"12"`
}

type RatesConfig struct {
	APIBaseURL       string        `envconfig:"MARKETGH_RATES_API_BASE_URL" default:"https://v6.exchangerate-api.com/v6"`
	APIKey           string        `envconfig:"MARKETGH_RATES_API_KEY"`
	BaseCurrency     string        `envconfig:"MARKETGH_RATES_BASE_CURRENCY" default:"GHS"`
	FetchTimeout     time.Duration `envconfig:"MARKETGH_RATES_FETCH_TIMEOUT" default:"5s"`
	CacheTTL         time.Duration `envconfig:"MARKETGH_RATES_CACHE_TTL" default:"24h"`
	FallbackCacheTTL time.Duration `envconfig:"MARKETGH_RATES_FALLBACK_CACHE_TTL" default:"1h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MARKETGH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"MARKETGH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MARKETGH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"MARKETGH_PUBSUB_ORDERS_TOPIC" default:"mgh-order-events"`
	OrdersSubscription string `envconfig:"MARKETGH_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"MARKETGH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"MARKETGH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"MARKETGH_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
