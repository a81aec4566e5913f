// Package config loads server settings with viper.
//
// PRECEDENCE (lowest to highest):
//
//	built-in defaults → optional config file → environment variables
//
// Every key's environment variable is its upper-cased name, so "db_driver"
// is set with DB_DRIVER. The file is YAML (or anything viper reads) and uses
// the same lower-case keys.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Storage engines.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds every setting the server reads.
type Config struct {
	Port int `mapstructure:"port"`

	DBDriver    string `mapstructure:"db_driver"`
	DBPath      string `mapstructure:"db_path"`
	DatabaseURL string `mapstructure:"database_url"`

	ContentfulSpaceID     string `mapstructure:"contentful_space_id"`
	ContentfulAccessToken string `mapstructure:"contentful_access_token"`
	ContentfulEnvironment string `mapstructure:"contentful_environment"`
	ContentfulBaseURL     string `mapstructure:"contentful_base_url"`

	RedisURL        string        `mapstructure:"redis_url"`
	ContentCacheTTL time.Duration `mapstructure:"content_cache_ttl"`

	CORSOrigin string `mapstructure:"cors_origin"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db_driver", DriverSQLite)
	v.SetDefault("db_path", "data/essays.db")
	v.SetDefault("database_url", "")
	v.SetDefault("contentful_space_id", "")
	v.SetDefault("contentful_access_token", "")
	v.SetDefault("contentful_environment", "master")
	v.SetDefault("contentful_base_url", "https://cdn.contentful.com")
	v.SetDefault("redis_url", "")
	v.SetDefault("content_cache_ttl", 5*time.Minute)
	v.SetDefault("cors_origin", "*")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
}

// Load reads configuration. configFile may be empty; when set it must exist.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("config: db_path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: database_url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown db_driver %q (want %q or %q)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	if c.ContentCacheTTL < 0 {
		return fmt.Errorf("config: content_cache_ttl must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// ContentEnabled reports whether CMS credentials are present.
func (c *Config) ContentEnabled() bool {
	return c.ContentfulSpaceID != "" && c.ContentfulAccessToken != ""
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return level, nil
}
