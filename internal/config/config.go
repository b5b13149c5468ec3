package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `env:"HUELLA_HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"HUELLA_GRPC_ADDR"` // empty = gRPC health server disabled

	Env string `env:"HUELLA_ENV" envDefault:"dev"` // "dev" | "prod"

	// DB
	DBDriver       string `env:"HUELLA_DB_DRIVER" envDefault:"sqlite"` // sqlite | postgres | mysql
	DBDSN          string `env:"HUELLA_DB_DSN"`
	DBPath         string `env:"HUELLA_DB_PATH" envDefault:"./data/huella.db"` // sqlite only, when DSN is empty
	DBMaxOpenConns int    `env:"HUELLA_DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBWriters      int    `env:"HUELLA_DB_WRITERS" envDefault:"0"` // 0 = derive from driver

	// Logging
	LogLevel      string `env:"HUELLA_LOG_LEVEL"`
	LogDev        bool   `env:"HUELLA_LOG_DEV"`
	LogFile       string `env:"HUELLA_LOG_FILE"`
	LogMaxAgeDays int    `env:"HUELLA_LOG_MAX_AGE_DAYS" envDefault:"14"`

	// Bridge access to the verification export.
	BridgeTokenSecret string        `env:"HUELLA_BRIDGE_TOKEN_SECRET"`
	BridgeTokenTTL    time.Duration `env:"HUELLA_BRIDGE_TOKEN_TTL" envDefault:"720h"`

	CORSAllowedOrigins []string `env:"HUELLA_CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Tracing
	OTelEndpoint string `env:"HUELLA_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"HUELLA_OTEL_ENABLED" envDefault:"true"`
}

var ErrUnknownDriver = errors.New("unknown database driver")

// FromEnv loads an optional .env file and parses the process environment.
func FromEnv() (Config, error) {
	// best-effort: a missing .env is the normal case in production
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg.normalize()
}

func (c Config) normalize() (Config, error) {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env != "dev" && c.Env != "prod" {
		// fail-soft: treat unknown as dev
		c.Env = "dev"
	}

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case "sqlite", "postgres", "mysql":
	case "pgx", "postgresql":
		c.DBDriver = "postgres"
	default:
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDriver, c.DBDriver)
	}
	if c.DBDriver != "sqlite" && strings.TrimSpace(c.DBDSN) == "" {
		return Config{}, fmt.Errorf("HUELLA_DB_DSN is required for driver %s", c.DBDriver)
	}

	if c.DBMaxOpenConns <= 0 {
		c.DBMaxOpenConns = 10
	}
	if c.DBWriters < 0 {
		c.DBWriters = 0
	}
	if c.LogMaxAgeDays <= 0 {
		c.LogMaxAgeDays = 14
	}

	c.CORSAllowedOrigins = trimAll(c.CORSAllowedOrigins)
	return c, nil
}

// IsDev reports whether the server runs with development defaults.
func (c Config) IsDev() bool { return c.Env == "dev" }

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
