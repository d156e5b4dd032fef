package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Booking      BookingConfig
	Notify       NotifyConfig
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
	Env          string `envconfig:"SERVIO_APP_ENV" required:"true"`
	Port         string `envconfig:"SERVIO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERVIO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERVIO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERVIO_DB_DSN"`
	Driver string `envconfig:"SERVIO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVIO_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVIO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVIO_DB_USER"`
	LegacyPassword string `envconfig:"SERVIO_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVIO_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVIO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVIO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVIO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVIO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVIO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVIO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVIO_REDIS_ADDR"`
	Password     string        `envconfig:"SERVIO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVIO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVIO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVIO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVIO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVIO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVIO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type BookingConfig struct {
	// StartWindow is how early a vendor may mark a booking started relative
	// to its scheduled date/time.
	StartWindow    time.Duration `envconfig:"SERVIO_BOOKING_START_WINDOW" default:"10m"`
	IdempotencyTTL time.Duration `envconfig:"SERVIO_BOOKING_IDEMPOTENCY_TTL" default:"168h"`
}

type NotifyConfig struct {
	PushEndpoint    string        `envconfig:"SERVIO_NOTIFY_PUSH_ENDPOINT"`
	PushAPIKey      string        `envconfig:"SERVIO_NOTIFY_PUSH_API_KEY"`
	EmailEndpoint   string        `envconfig:"SERVIO_NOTIFY_EMAIL_ENDPOINT"`
	EmailAPIKey     string        `envconfig:"SERVIO_NOTIFY_EMAIL_API_KEY"`
	EmailFrom       string        `envconfig:"SERVIO_NOTIFY_EMAIL_FROM"`
	DispatchTimeout time.Duration `envconfig:"SERVIO_NOTIFY_DISPATCH_TIMEOUT" default:"15s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERVIO_AUTO_MIGRATE" default:"false"`
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
