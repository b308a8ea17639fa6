package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "BOLEKA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Wallet       WalletConfig
	RateLimit    RateLimitConfig
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
	if _, err := cfg.Wallet.PlatformAccount(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOLEKA_APP_ENV" required:"true"`
	Port         string `envconfig:"BOLEKA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"BOLEKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOLEKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BOLEKA_DB_DSN"`

	Host     string `envconfig:"BOLEKA_DB_HOST"`
	Port     int    `envconfig:"BOLEKA_DB_PORT" default:"5432"`
	User     string `envconfig:"BOLEKA_DB_USER"`
	Password string `envconfig:"BOLEKA_DB_PASSWORD"`
	Name     string `envconfig:"BOLEKA_DB_NAME"`
	SSLMode  string `envconfig:"BOLEKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOLEKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOLEKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOLEKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOLEKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOLEKA_REDIS_URL"`
	Address      string        `envconfig:"BOLEKA_REDIS_ADDR"`
	Password     string        `envconfig:"BOLEKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOLEKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOLEKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOLEKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOLEKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOLEKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOLEKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BOLEKA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BOLEKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BOLEKA_JWT_EXPIRATION_MINUTES" default:"60"`
}

// WalletConfig carries the monetary policy for the ledger. The platform
// account is the reserved system account credited with every commission.
type WalletConfig struct {
	Currency                 string `envconfig:"BOLEKA_WALLET_CURRENCY" default:"ZAR"`
	PlatformAccountID        string `envconfig:"BOLEKA_WALLET_PLATFORM_ACCOUNT_ID" default:"00000000-0000-0000-0000-000000b01eca"`
	TransactionsDefaultLimit int    `envconfig:"BOLEKA_WALLET_TX_DEFAULT_LIMIT" default:"50"`
	TransactionsMaxLimit     int    `envconfig:"BOLEKA_WALLET_TX_MAX_LIMIT" default:"200"`
	TxMaxRetries             int    `envconfig:"BOLEKA_WALLET_TX_MAX_RETRIES" default:"3"`
}

// PlatformAccount parses the configured platform account id.
func (w WalletConfig) PlatformAccount() (uuid.UUID, error) {
	id, err := uuid.Parse(w.PlatformAccountID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid platform account id %q: %w", w.PlatformAccountID, err)
	}
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("platform account id must not be the nil uuid")
	}
	return id, nil
}

type RateLimitConfig struct {
	WalletWindow        time.Duration `envconfig:"BOLEKA_RATE_LIMIT_WALLET_WINDOW" default:"1m"`
	WalletMutationLimit int64         `envconfig:"BOLEKA_RATE_LIMIT_WALLET_MUTATIONS" default:"30"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BOLEKA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for env, val := range map[string]string{
		"BOLEKA_DB_HOST": db.Host,
		"BOLEKA_DB_USER": db.User,
		"BOLEKA_DB_NAME": db.Name,
	} {
		if val == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either BOLEKA_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
