package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "RETAILSTOCK"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ReservationPolicyKeepPartial  = "keep_partial"
	ReservationPolicyAllOrNothing = "all_or_nothing"

	defaultPurchasePriceRatio = "0.70"
)

const (
	EnvAppEnv   = "RETAILSTOCK_APP_ENV"
	EnvPort     = "RETAILSTOCK_APP_PORT"
	EnvLogLevel = "RETAILSTOCK_LOG_LEVEL"

	EnvDBDSN    = "RETAILSTOCK_DB_DSN"
	EnvDBDriver = "RETAILSTOCK_DB_DRIVER"
	EnvDBHost   = "RETAILSTOCK_DB_HOST"
	EnvDBUser   = "RETAILSTOCK_DB_USER"
	EnvDBName   = "RETAILSTOCK_DB_NAME"

	EnvRedisURL = "RETAILSTOCK_REDIS_URL"

	EnvSchedulerTick  = "RETAILSTOCK_SCHEDULER_TICK_INTERVAL"
	EnvSchedulerStage = "RETAILSTOCK_SCHEDULER_STAGE_INTERVAL"

	EnvReservationPolicy = "RETAILSTOCK_FULFILLMENT_RESERVATION_POLICY"
	EnvRestockLeadDays   = "RETAILSTOCK_RESTOCK_LEAD_DAYS"
	EnvRestockPriceRatio = "RETAILSTOCK_RESTOCK_PURCHASE_PRICE_RATIO"
	EnvDamageKeywords    = "RETAILSTOCK_RETURNS_DAMAGE_KEYWORDS"
	EnvKafkaBrokers      = "RETAILSTOCK_KAFKA_BROKERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
