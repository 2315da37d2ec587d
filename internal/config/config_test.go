package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "clinical_trials", cfg.Database.Name)
	assert.Equal(t, "admin", cfg.Database.User)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 30*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.Equal(t, "/api/v1", cfg.API.Prefix)
	assert.Equal(t, 50, cfg.API.DefaultPageSize)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Monitoring.PrometheusEnabled)
}

func TestLoadConfig_DBEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_NAME", "trials_test")
	t.Setenv("DB_USER", "svc")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("DB_SSL_MODE", "require")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "trials_test", cfg.Database.Name)
	assert.Equal(t, "svc", cfg.Database.User)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t,
		"host='db.internal' port='6543' user='svc' password='s3cret' dbname='trials_test' sslmode='require'",
		cfg.Database.DSN())
}

func TestDatabaseConfig_DSNQuotesValues(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "trials",
		Password: `it's a \secret`,
		Name:     "trials",
		SSLMode:  "disable",
	}

	dsn := cfg.DSN()
	assert.Equal(t,
		`host='localhost' port='5432' user='trials' password='it\'s a \\secret' dbname='trials' sslmode='disable'`,
		dsn)

	_, err := pq.NewConnector(dsn)
	assert.NoError(t, err)

	cfg.Password = ""
	_, err = pq.NewConnector(cfg.DSN())
	assert.NoError(t, err)
}

func TestLoadConfig_ViperEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
server:
  port: 8081
rate_limit:
  enabled: true
  requests_per_second: 5
  burst: 10
api:
  max_page_size: 100
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, float64(5), cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 100, cfg.API.MaxPageSize)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8000},
			Database: DatabaseConfig{Host: "localhost", Name: "db"},
			API:      APIConfig{Prefix: "/api/v1", DefaultPageSize: 50, MaxPageSize: 500},
		}
	}

	c := valid()
	assert.NoError(t, c.Validate())

	c = valid()
	c.Server.Port = 0
	assert.Error(t, c.Validate())

	c = valid()
	c.API.MaxPageSize = 10
	assert.Error(t, c.Validate())

	c = valid()
	c.API.Prefix = "api"
	assert.Error(t, c.Validate())

	c = valid()
	c.RateLimit.Enabled = true
	assert.Error(t, c.Validate())
}
