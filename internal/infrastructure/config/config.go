// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/workshift/shift-tracker/internal/pkg/clock"
)

type Config struct {
	Env      string `env:"ENV,            default=production"`
	LogLevel string `env:"LOG_LEVEL,      default=info"`
	LogFile  string `env:"LOG_FILE"`
	Timezone string `env:"SHIFT_TIMEZONE, default=Europe/Moscow"`

	HTTP     HTTPConfig
	Telegram TelegramConfig
	Store    StoreConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type HTTPConfig struct {
	Port      string        `env:"PORT,       default=8080"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=24h"`
}

type TelegramConfig struct {
	Token       string  `env:"TELEGRAM_BOT_TOKEN"`
	AdminIDs    []int64 `env:"ADMIN_IDS"`
	Workers     int     `env:"BOT_WORKERS,      default=4"`
	PollTimeout int     `env:"BOT_POLL_TIMEOUT, default=60"`
}

type StoreConfig struct {
	// Driver is sqlite, postgres or mongo.
	Driver string `env:"STORE_DRIVER, default=sqlite"`
	DSN    string `env:"STORE_DSN,    default=data/shifts.db"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shift_tracker"`
}

// RedisConfig is optional; an empty address disables update deduplication.
type RedisConfig struct {
	Addr string `env:"REDIS_ADDR"`
	DB   int    `env:"REDIS_DB, default=0"`
}

// Load reads .env (if present) and then the environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("config: STORE_DRIVER must be sqlite, postgres or mongo, got %q", c.Store.Driver)
	}
	if c.Telegram.Workers < 1 {
		return fmt.Errorf("config: BOT_WORKERS must be positive, got %d", c.Telegram.Workers)
	}
	if _, err := c.Clock(); err != nil {
		return err
	}
	return nil
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// Clock returns a clock in SHIFT_TIMEZONE, the zone every shift timestamp uses.
func (c *Config) Clock() (*clock.System, error) {
	return clock.Load(c.Timezone)
}
