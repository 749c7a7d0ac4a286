package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// DefaultConsumerGroup is shared by every instance; the cache it
	// invalidates lives in the same Redis.
	DefaultConsumerGroup = "ledger-read-model"
)

var hostname = os.Hostname

// Config is read once at startup.
type Config struct {
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	StoreDriver string
	StorePath   string
	DatabaseURL string

	// An empty RedisAddr disables the read cache and event publishing.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// ConsumerGroup is the stream group for read model invalidation.
	// InstanceID names this process inside it and should stay the same
	// across restarts so pending entries are picked up again.
	ConsumerGroup string
	InstanceID    string
}

// RedisEnabled reports whether a Redis server was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads the process environment.
func Load() (*Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (*Config, error) {
	getEnv := func(key, fallback string) string {
		if value := getenv(key); value != "" {
			return value
		}
		return fallback
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		JWTSecret:     getenv("JWT_SECRET"),
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", DriverFile)),
		StorePath:     getEnv("STORE_PATH", filepath.Join("data", "db.json")),
		DatabaseURL:   getenv("DATABASE_URL"),
		RedisAddr:     getenv("REDIS_ADDR"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		ConsumerGroup: getEnv("CONSUMER_GROUP", DefaultConsumerGroup),
		InstanceID:    getenv("INSTANCE_ID"),
	}
	if cfg.InstanceID == "" {
		name, err := hostname()
		if err != nil || name == "" {
			name = "ledger"
		}
		cfg.InstanceID = name
	}

	var errs []error
	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET environment variable is required"))
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "24h"))
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("TOKEN_TTL: %w", err))
	case ttl <= 0:
		errs = append(errs, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl))
	}
	cfg.TokenTTL = ttl

	switch cfg.StoreDriver {
	case DriverFile:
	case DriverPostgres, DriverSQLite:
		if cfg.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", cfg.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be one of %s, %s, %s; got %q",
			DriverFile, DriverPostgres, DriverSQLite, cfg.StoreDriver))
	}

	if raw := getenv("REDIS_DB"); raw != "" {
		db, err := strconv.Atoi(raw)
		if err != nil || db < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB must be a non-negative integer, got %q", raw))
		}
		cfg.RedisDB = db
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv copies KEY=VALUE lines from path into the environment. Variables
// that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
