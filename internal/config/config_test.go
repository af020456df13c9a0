package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("SHAREIT_DB_PATH", "data/shareit.db")

	yamlContent := `
app:
  name: shareit
  environment: test
database:
  path: "${SHAREIT_DB_PATH}"
kafka:
  brokers: ["localhost:9092"]
  topic: booking-events
api:
  rate_limit:
    user_limit: 30
booking:
  promote_next_to_last: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/shareit.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.API.HTTP.Port)
	assert.Equal(t, 20, cfg.Booking.DefaultPageSize)
	assert.Equal(t, time.Minute, cfg.API.RateLimit.UserWindow)
	assert.Equal(t, "shareit", cfg.Kafka.ClientID)
	assert.True(t, cfg.Kafka.Enabled())
	assert.False(t, cfg.Booking.PromoteNextToLastEnabled())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPromoteNextToLastDefault(t *testing.T) {
	var cfg BookingConfig
	assert.True(t, cfg.PromoteNextToLastEnabled())

	on := true
	cfg.PromoteNextToLast = &on
	assert.True(t, cfg.PromoteNextToLastEnabled())
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "path"},
			Booking:  BookingConfig{DefaultPageSize: 20},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: true},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres.DBName = "shareit"
			},
			wantErr: true,
		},
		{
			name: "postgres",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres = PostgresConfig{Host: "db", DBName: "shareit"}
			},
		},
		{name: "kafka without topic", mutate: func(c *Config) { c.Kafka.Brokers = []string{"k:9092"} }, wantErr: true},
		{name: "page size too large", mutate: func(c *Config) { c.Booking.DefaultPageSize = 1000 }, wantErr: true},
		{name: "backup without storage path", mutate: func(c *Config) { c.Backup.Enabled = true }, wantErr: true},
		{
			name: "backup with storage path",
			mutate: func(c *Config) {
				c.Backup.Enabled = true
				c.Backup.StoragePath = "/tmp/backups"
			},
		},
		{name: "auth without keys", mutate: func(c *Config) { c.API.Auth.Enabled = true }, wantErr: true},
		{
			name: "duplicate api keys",
			mutate: func(c *Config) {
				c.API.Auth.Enabled = true
				c.API.Auth.APIKeys = []APIClientKey{{Key: "k", Name: "a"}, {Key: "k", Name: "b"}}
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

func TestPostgresDSN(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "shareit", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=shareit sslmode=disable", cfg.DSN())
}
