// Package config loads the server configuration from defaults, an optional
// papertrade.yaml and PAPERTRADE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "PAPERTRADE"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Database DatabaseConfig `mapstructure:"database"`
	Trading  TradingConfig  `mapstructure:"trading"`
	Recovery RecoveryConfig `mapstructure:"recovery"`
	Payments PaymentsConfig `mapstructure:"payments"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Advisory AdvisoryConfig `mapstructure:"advisory"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"` // debug, release, test
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateLimit      bool     `mapstructure:"rate_limit"`
}

type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// TradingConfig holds ledger defaults.
type TradingConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	Timezone       string  `mapstructure:"timezone"` // used for "today" and the orders date filter
}

type RecoveryConfig struct {
	Interval   time.Duration `mapstructure:"interval"`
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

type PaymentsConfig struct {
	SuccessRate float64 `mapstructure:"success_rate"`
}

type CacheConfig struct {
	RedisURL string `mapstructure:"redis_url"` // empty selects the in-process cache
}

type AdvisoryConfig struct {
	OpenAIAPIKey string `mapstructure:"openai_api_key"`
	OpenAIModel  string `mapstructure:"openai_model"`
	NewsAPIKey   string `mapstructure:"news_api_key"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

// DefaultConfigDir returns the per-user configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "papertrade")
	}
	return filepath.Join(home, ".config", "papertrade")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.rate_limit", true)

	v.SetDefault("auth.jwt_secret", "papertrade-dev-secret")
	v.SetDefault("auth.token_ttl", 72*time.Hour)
	v.SetDefault("auth.cookie_secure", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "papertrade.db")

	v.SetDefault("trading.initial_balance", 100000.0)
	v.SetDefault("trading.timezone", "Local")

	v.SetDefault("recovery.interval", time.Minute)
	v.SetDefault("recovery.stale_after", 5*time.Minute)

	v.SetDefault("payments.success_rate", 0.8)

	v.SetDefault("cache.redis_url", "")

	v.SetDefault("advisory.openai_model", "gpt-4o-mini")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("log.file", false)
	v.SetDefault("log.file_path", filepath.Join(DefaultConfigDir(), "logs", "papertrade.log"))
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age", 30)
}

// Load reads configuration. When path is empty, papertrade.yaml is searched
// for in the working directory and DefaultConfigDir; a missing file is not an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("papertrade")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(DefaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver %q must be sqlite or postgres", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return errors.New("database.dsn is required")
	}
	if c.Trading.InitialBalance < 0 {
		return errors.New("trading.initial_balance must not be negative")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("trading.timezone: %w", err)
	}
	if c.Recovery.Interval <= 0 || c.Recovery.StaleAfter <= 0 {
		return errors.New("recovery.interval and recovery.stale_after must be positive")
	}
	if c.Payments.SuccessRate < 0 || c.Payments.SuccessRate > 1 {
		return errors.New("payments.success_rate must be between 0 and 1")
	}
	return nil
}

// Location resolves trading.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Trading.Timezone == "" || c.Trading.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Trading.Timezone)
}
