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
	// EnvPrefix is the envconfig prefix shared by every BizLink binary.
	EnvPrefix = "BIZLINK"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "BIZLINK_DB_DSN"
	EnvDBHost = "BIZLINK_DB_HOST"
	EnvDBUser = "BIZLINK_DB_USER"
	EnvDBName = "BIZLINK_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Razorpay     RazorpayConfig
	Billing      BillingConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"BIZLINK_APP_ENV" required:"true"`
	Port         string `envconfig:"BIZLINK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BIZLINK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BIZLINK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BIZLINK_DB_DSN"`
	Driver string `envconfig:"BIZLINK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BIZLINK_DB_HOST"`
	LegacyPort     int    `envconfig:"BIZLINK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BIZLINK_DB_USER"`
	LegacyPassword string `envconfig:"BIZLINK_DB_PASSWORD"`
	LegacyName     string `envconfig:"BIZLINK_DB_NAME"`
	LegacySSLMode  string `envconfig:"BIZLINK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BIZLINK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BIZLINK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BIZLINK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BIZLINK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BIZLINK_REDIS_URL" required:"true"`
	Password     string        `envconfig:"BIZLINK_REDIS_PASSWORD"`
	DB           int           `envconfig:"BIZLINK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BIZLINK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BIZLINK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BIZLINK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BIZLINK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BIZLINK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BIZLINK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BIZLINK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BIZLINK_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RazorpayConfig holds the gateway credentials. The webhook secret is
// provisioned separately from the API key pair and only signs webhook bodies.
type RazorpayConfig struct {
	KeyID         string `envconfig:"BIZLINK_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"BIZLINK_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"BIZLINK_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"BIZLINK_RAZORPAY_BASE_URL"`
}

type BillingConfig struct {
	TaxRatePercent    int           `envconfig:"BIZLINK_BILLING_TAX_RATE_PERCENT" default:"18"`
	InvoiceDueDays    int           `envconfig:"BIZLINK_BILLING_INVOICE_DUE_DAYS" default:"7"`
	WebhookCycleAware bool          `envconfig:"BIZLINK_BILLING_WEBHOOK_CYCLE_AWARE" default:"false"`
	WebhookEventTTL   time.Duration `envconfig:"BIZLINK_BILLING_WEBHOOK_EVENT_TTL" default:"720h"`
}

// TaxRate returns the configured tax rate as a decimal fraction (18 -> 0.18).
func (b BillingConfig) TaxRate() decimal.Decimal {
	if b.TaxRatePercent <= 0 {
		return decimal.Zero
	}
	return decimal.New(int64(b.TaxRatePercent), -2)
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BIZLINK_AUTO_MIGRATE" default:"false"`
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
