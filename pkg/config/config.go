package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "VICTUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "VICTUS_APP_ENV"
	EnvDBDSN  = "VICTUS_DB_DSN"
	EnvDBHost = "VICTUS_DB_HOST"
	EnvDBUser = "VICTUS_DB_USER"
	EnvDBName = "VICTUS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Idempotency IdempotencyConfig
	Cron        CronConfig
	Features    FeatureFlagsConfig
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
	Env          string `envconfig:"VICTUS_APP_ENV" required:"true"`
	Port         string `envconfig:"VICTUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VICTUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VICTUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VICTUS_DB_DSN"`
	Driver string `envconfig:"VICTUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VICTUS_DB_HOST"`
	LegacyPort     int    `envconfig:"VICTUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VICTUS_DB_USER"`
	LegacyPassword string `envconfig:"VICTUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"VICTUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"VICTUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VICTUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VICTUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VICTUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VICTUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VICTUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VICTUS_REDIS_ADDR"`
	Password     string        `envconfig:"VICTUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"VICTUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VICTUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VICTUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VICTUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VICTUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VICTUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VICTUS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VICTUS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VICTUS_JWT_EXPIRATION_MINUTES" default:"60"`
}

type IdempotencyConfig struct {
	TTL          time.Duration `envconfig:"VICTUS_IDEMPOTENCY_TTL" default:"24h"`
	LockTTL      time.Duration `envconfig:"VICTUS_IDEMPOTENCY_LOCK_TTL" default:"30s"`
	LockWait     time.Duration `envconfig:"VICTUS_IDEMPOTENCY_LOCK_WAIT" default:"2s"`
	LockWaitStep time.Duration `envconfig:"VICTUS_IDEMPOTENCY_LOCK_WAIT_STEP" default:"50ms"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"VICTUS_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"VICTUS_CRON_LOCK_TTL" default:"1h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VICTUS_AUTO_MIGRATE" default:"false"`
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
