package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"tourguide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TOURGUIDE_ADMIN_KEY", "secret-admin")

	yamlContent := `
app:
  name: "tourguide-test"
  timezone: "Africa/Algiers"
database:
  path: "test.db"
api:
  auth:
    admin_keys:
      - key: "${TOURGUIDE_ADMIN_KEY}"
        name: "ops"
weather:
  cache_ttl: 30m
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "tourguide-test", cfg.App.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	require.Len(t, cfg.API.Auth.AdminKeys, 1)
	assert.Equal(t, "secret-admin", cfg.API.Auth.AdminKeys[0].Key)
	assert.Equal(t, 30*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, "Africa/Algiers", cfg.App.Location().String())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		c := Config{Database: DatabaseConfig{Path: "path"}}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Database.Driver = "postgres" },
			wantErr: true,
		},
		{
			name: "postgres ok",
			mutate: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.Postgres.Host = "localhost"
				c.Database.Postgres.DBName = "tours"
			},
		},
		{name: "bad timezone", mutate: func(c *Config) { c.App.Timezone = "Mars/Olympus" }, wantErr: true},
		{
			name: "duplicate admin key",
			mutate: func(c *Config) {
				c.API.Auth.AdminKeys = []APIClientKey{{Key: "k", Name: "a"}, {Key: "k", Name: "b"}}
			},
			wantErr: true,
		},
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

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, 8081, cfg.API.GRPC.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, models.DefaultCurrency, cfg.App.Currency)
	assert.Equal(t, models.DefaultMaxBookingDays, cfg.Bookings.MaxBookingDays)
	assert.Equal(t, models.MinCancelDays, cfg.Bookings.MinCancelDays)
	assert.Equal(t, models.RateLimitMessages, cfg.Messaging.RateLimitMessages)
	assert.Equal(t, time.Hour, cfg.Weather.CacheTTL)
	assert.Equal(t, "configs/wilayas.yaml", cfg.WilayasPath)
	assert.Equal(t, time.UTC, cfg.App.Location())
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "tours", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=tours sslmode=disable", p.DSN())
}
