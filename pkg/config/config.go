package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Scheduler    SchedulerConfig
	Fulfillment  FulfillmentConfig
	Restock      RestockConfig
	Returns      ReturnsConfig
	Outbox       OutboxConfig
	Kafka        KafkaConfig
	Metrics      MetricsConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Fulfillment.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Restock.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETAILSTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"RETAILSTOCK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"RETAILSTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETAILSTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RETAILSTOCK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"RETAILSTOCK_DB_DSN"`
	Driver string `envconfig:"RETAILSTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"RETAILSTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"RETAILSTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"RETAILSTOCK_DB_USER"`
	LegacyPassword string `envconfig:"RETAILSTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"RETAILSTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"RETAILSTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETAILSTOCK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETAILSTOCK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETAILSTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETAILSTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded SQLite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"RETAILSTOCK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"RETAILSTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"RETAILSTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETAILSTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETAILSTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETAILSTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETAILSTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETAILSTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETAILSTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETAILSTOCK_AUTO_MIGRATE" default:"false"`
}

// SchedulerConfig drives the delivery progression worker.
type SchedulerConfig struct {
	TickInterval  time.Duration `envconfig:"RETAILSTOCK_SCHEDULER_TICK_INTERVAL" default:"2s"`
	StageInterval time.Duration `envconfig:"RETAILSTOCK_SCHEDULER_STAGE_INTERVAL" default:"5s"`
	LockTTL       time.Duration `envconfig:"RETAILSTOCK_SCHEDULER_LOCK_TTL" default:"30s"`
}

type FulfillmentConfig struct {
	ReservationPolicy string `envconfig:"RETAILSTOCK_FULFILLMENT_RESERVATION_POLICY" default:"keep_partial"`
}

func (f FulfillmentConfig) validate() error {
	switch f.ReservationPolicy {
	case ReservationPolicyKeepPartial, ReservationPolicyAllOrNothing:
		return nil
	}
	return fmt.Errorf("%s must be %q or %q", EnvReservationPolicy, ReservationPolicyKeepPartial, ReservationPolicyAllOrNothing)
}

type RestockConfig struct {
	LeadDays           int    `envconfig:"RETAILSTOCK_RESTOCK_LEAD_DAYS" default:"3"`
	PurchasePriceRatio string `envconfig:"RETAILSTOCK_RESTOCK_PURCHASE_PRICE_RATIO" default:"0.70"`
	SupplierName       string `envconfig:"RETAILSTOCK_RESTOCK_SUPPLIER_NAME" default:"Auto-Restocking"`
}

// Ratio returns the purchase price ratio applied to base prices for auto deliveries.
func (r RestockConfig) Ratio() decimal.Decimal {
	ratio, err := decimal.NewFromString(strings.TrimSpace(r.PurchasePriceRatio))
	if err != nil {
		return decimal.RequireFromString(defaultPurchasePriceRatio)
	}
	return ratio
}

func (r RestockConfig) validate() error {
	ratio, err := decimal.NewFromString(strings.TrimSpace(r.PurchasePriceRatio))
	if err != nil {
		return fmt.Errorf("%s: %w", EnvRestockPriceRatio, err)
	}
	if !ratio.IsPositive() {
		return fmt.Errorf("%s must be positive", EnvRestockPriceRatio)
	}
	if r.LeadDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvRestockLeadDays)
	}
	return nil
}

type ReturnsConfig struct {
	DamageKeywords []string `envconfig:"RETAILSTOCK_RETURNS_DAMAGE_KEYWORDS" default:"damage,defect,broken,faulty,uszkodzon,usterka"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"RETAILSTOCK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"RETAILSTOCK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"RETAILSTOCK_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"RETAILSTOCK_OUTBOX_RETENTION_DAYS" default:"30"`
	// DedupeTTL bounds how long a published event id is remembered in Redis.
	DedupeTTL time.Duration `envconfig:"RETAILSTOCK_OUTBOX_DEDUPE_TTL" default:"168h"`
}

type KafkaConfig struct {
	Brokers         []string      `envconfig:"RETAILSTOCK_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic     string        `envconfig:"RETAILSTOCK_KAFKA_ORDERS_TOPIC" default:"retailstock.orders"`
	DeliveriesTopic string        `envconfig:"RETAILSTOCK_KAFKA_DELIVERIES_TOPIC" default:"retailstock.deliveries"`
	SalesTopic      string        `envconfig:"RETAILSTOCK_KAFKA_SALES_TOPIC" default:"retailstock.sales"`
	BatchTimeout    time.Duration `envconfig:"RETAILSTOCK_KAFKA_BATCH_TIMEOUT" default:"10ms"`
	BatchSize       int           `envconfig:"RETAILSTOCK_KAFKA_BATCH_SIZE" default:"100"`
}

type MetricsConfig struct {
	Addr string `envconfig:"RETAILSTOCK_METRICS_ADDR" default:":9090"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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

// RateLimitConfig throttles mutating API calls per client IP. A zero limit disables it.
type RateLimitConfig struct {
	Window     time.Duration `envconfig:"RETAILSTOCK_RATE_LIMIT_WINDOW" default:"1m"`
	WriteLimit int           `envconfig:"RETAILSTOCK_RATE_LIMIT_WRITES" default:"120"`
}
