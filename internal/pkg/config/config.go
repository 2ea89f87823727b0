package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const devSecretKey = "dev-only-secret-key-change-me"

var ErrMissingSecret = errors.New("config: SECRET_KEY is required outside development")

type Config struct {
	Port      string `env:"PORT,       default=8080"`
	Env       string `env:"ENV,        default=development"`
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	SecretKey string `env:"SECRET_KEY"`

	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig

	devSecret bool
}

type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER, default=sqlite3"`
	DSN    string `env:"DB_DSN,    default=blog.db"`
}

// RedisConfig is optional: an empty Addr keeps sessions in memory.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,        default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

type SessionConfig struct {
	TTL          time.Duration `env:"SESSION_TTL,   default=24h"`
	CookieSecure bool          `env:"COOKIE_SECURE, default=false"`
	CSRFEnabled  bool          `env:"CSRF_ENABLED,  default=true"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration through lookuper and validates it.
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// UsingDevSecret reports whether SECRET_KEY was unset and the development
// fallback is in use.
func (c *Config) UsingDevSecret() bool {
	return c.devSecret
}

func (c *Config) validate() error {
	if c.SecretKey != "" {
		return nil
	}
	if !c.IsDevelopment() {
		return ErrMissingSecret
	}
	c.SecretKey = devSecretKey
	c.devSecret = true
	return nil
}
