package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=12h"`
	SessionCookie string        `env:"SESSION_COOKIE, default=bo_session"`

	Mongo     MongoConfig
	Redis     RedisConfig
	Storage   StorageConfig
	Cleanup   CleanupConfig
	Bootstrap BootstrapConfig
}

type MongoConfig struct {
	URI       string        `env:"MONGO_URI,            default=mongodb://localhost:27017/?replicaSet=rs0"`
	Database  string        `env:"MONGO_DB,             default=backoffice"`
	Timeout   time.Duration `env:"MONGO_TIMEOUT,        default=10s"`
	TxTimeout time.Duration `env:"LIFECYCLE_TX_TIMEOUT, default=30s"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR,        default=localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,          default=0"`
	Timeout    time.Duration `env:"REDIS_TIMEOUT,     default=5s"`
	FailureKey string        `env:"REDIS_FAILURE_KEY, default=cleanup:failures"`
}

type StorageConfig struct {
	BaseURL      string        `env:"STORAGE_BASE_URL,      default=http://localhost:8080"`
	UploadSecret string        `env:"STORAGE_UPLOAD_SECRET"`
	UploadTTL    time.Duration `env:"STORAGE_UPLOAD_TTL,    default=15m"`
	Bucket       string        `env:"STORAGE_BUCKET,        default=media"`
}

type CleanupConfig struct {
	Workers           int           `env:"CLEANUP_WORKERS,            default=4"`
	MaxAttempts       int           `env:"CLEANUP_MAX_ATTEMPTS,       default=5"`
	BaseBackoff       time.Duration `env:"CLEANUP_BASE_BACKOFF,       default=200ms"`
	MaxBackoff        time.Duration `env:"CLEANUP_MAX_BACKOFF,        default=10s"`
	AttemptTimeout    time.Duration `env:"CLEANUP_ATTEMPT_TIMEOUT,    default=15s"`
	Rate              float64       `env:"CLEANUP_RATE,               default=50"`
	ReconcileInterval time.Duration `env:"CLEANUP_RECONCILE_INTERVAL, default=5m"`
}

// BootstrapConfig seeds the master admin account on start when both are set.
type BootstrapConfig struct {
	MasterAdminLogin    string `env:"MASTER_ADMIN_LOGIN"`
	MasterAdminPassword string `env:"MASTER_ADMIN_PASSWORD"`
}

// Production reports whether the service runs with ENV=production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Validate rejects configurations the service cannot run safely with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Storage.UploadSecret == "" {
		errs = append(errs, errors.New("STORAGE_UPLOAD_SECRET is required"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.SessionCookie == "" {
		errs = append(errs, errors.New("SESSION_COOKIE must not be empty"))
	}
	if c.Cleanup.MaxBackoff < c.Cleanup.BaseBackoff {
		errs = append(errs, errors.New("CLEANUP_MAX_BACKOFF must not be below CLEANUP_BASE_BACKOFF"))
	}
	if (c.Bootstrap.MasterAdminLogin == "") != (c.Bootstrap.MasterAdminPassword == "") {
		errs = append(errs, errors.New("MASTER_ADMIN_LOGIN and MASTER_ADMIN_PASSWORD must be set together"))
	}
	return errors.Join(errs...)
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads and validates configuration from l.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
