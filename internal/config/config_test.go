package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "data/essays.db", cfg.DBPath)
	assert.Equal(t, "master", cfg.ContentfulEnvironment)
	assert.Equal(t, 5*time.Minute, cfg.ContentCacheTTL)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.False(t, cfg.ContentEnabled())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/essays")
	t.Setenv("CONTENTFUL_SPACE_ID", "space")
	t.Setenv("CONTENTFUL_ACCESS_TOKEN", "token")
	t.Setenv("CONTENT_CACHE_TTL", "90s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, "postgres://localhost/essays", cfg.DatabaseURL)
	assert.True(t, cfg.ContentEnabled())
	assert.Equal(t, 90*time.Second, cfg.ContentCacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "port: 7000\ncors_origin: https://essays.example\ndb_path: /tmp/file.db\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("PORT", "7001")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Port, "env beats file")
	assert.Equal(t, "https://essays.example", cfg.CORSOrigin)
	assert.Equal(t, "/tmp/file.db", cfg.DBPath)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Port:      8080,
			DBDriver:  DriverSQLite,
			DBPath:    "x.db",
			LogLevel:  "info",
			LogFormat: "text",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Port = 0 }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"postgres without url", func(c *Config) { c.DBDriver = DriverPostgres }, true},
		{"postgres with url", func(c *Config) { c.DBDriver = DriverPostgres; c.DatabaseURL = "postgres://x" }, false},
		{"sqlite without path", func(c *Config) { c.DBPath = "" }, true},
		{"negative ttl", func(c *Config) { c.ContentCacheTTL = -time.Second }, true},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
