// Package config loads service configuration from an optional YAML file,
// an optional .env file, and environment overrides.
//
// Precedence, lowest first: struct defaults, YAML, environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/atmx/valuation-engine/internal/intrinsic"
)

type ServerConfig struct {
	Port            string        `yaml:"port" default:"8080" validate:"required,numeric"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" default:"60s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"5s"`
}

type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate" default:"true"`
}

type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl" default:"30s"`
}

type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

// ValuationConfig holds engine assumptions. RiskFreeRate is the default for
// requests that do not carry their own.
type ValuationConfig struct {
	RiskFreeRate float64          `yaml:"risk_free_rate" default:"0.045" validate:"gte=0,lte=0.25"`
	HistoryLimit int              `yaml:"history_limit" default:"50" validate:"gte=1"`
	Params       intrinsic.Params `yaml:"params"`
}

// Config is the full service configuration.
type Config struct {
	Environment string          `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Redis       RedisConfig     `yaml:"redis"`
	Log         LogConfig       `yaml:"log"`
	Valuation   ValuationConfig `yaml:"valuation"`
}

var validate = validator.New()

// Default returns a Config with every default applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set config defaults: %w", err)
	}
	return &c, nil
}

// Load reads path over the defaults and validates the result. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads envFiles into the process environment (missing files
// are skipped), then loads path and applies environment overrides.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("RISK_FREE_RATE"); v != "" {
		rf, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RISK_FREE_RATE: %w", err)
		}
		c.Valuation.RiskFreeRate = rf
	}
	return nil
}

// Validate checks field constraints and cross-field assumptions.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	p := c.Valuation.Params.DCF
	if p.MinWACC > p.MaxWACC {
		return fmt.Errorf("valuation.params.dcf: min_wacc %.4f exceeds max_wacc %.4f", p.MinWACC, p.MaxWACC)
	}
	if p.TerminalGrowth >= p.MinWACC {
		return fmt.Errorf("valuation.params.dcf: terminal_growth %.4f must be below min_wacc %.4f", p.TerminalGrowth, p.MinWACC)
	}
	return nil
}

// SlogLevel maps Log.Level to a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
