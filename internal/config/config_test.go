// internal/config/config_test.go
package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "memory", cfg.Broker.Driver)
	assert.Equal(t, int64(5*1024*1024), cfg.Storage.MaxImageSize)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_NAME", "art.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_ENABLED", "FALSE")
	t.Setenv("REDIS_HOST", "cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "art.db", cfg.Database.DSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "cache:6379", cfg.Redis.Addr())
}

func TestPostgresDSN(t *testing.T) {
	d := DatabaseConfig{
		Driver:   "postgres",
		Host:     "db",
		Port:     "5432",
		User:     "art",
		Password: "pw",
		Database: "market",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=db port=5432 user=art password=pw dbname=market sslmode=disable", d.DSN())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment: "production",
			Database:    DatabaseConfig{Driver: "postgres", Password: "pw"},
			JWT:         JWTConfig{SecretKey: "real-secret", AccessTokenTTL: 1},
			Storage:     StorageConfig{Driver: "s3"},
			Broker:      BrokerConfig{Driver: "nats"},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"default jwt secret in production", func(c *Config) { c.JWT.SecretKey = defaultJWTSecret }},
		{"unknown database driver", func(c *Config) { c.Database.Driver = "mysql" }},
		{"sqlite in production", func(c *Config) { c.Database.Driver = "sqlite" }},
		{"missing database password in production", func(c *Config) { c.Database.Password = "" }},
		{"non-positive token ttl", func(c *Config) { c.JWT.AccessTokenTTL = 0 }},
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "ftp" }},
		{"unknown broker driver", func(c *Config) { c.Broker.Driver = "kafka" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
