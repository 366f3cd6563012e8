package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partprice/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Scraper.PacingDelay)
	assert.Equal(t, 6*time.Hour, cfg.Scraper.PassInterval)
	assert.Equal(t, 5*time.Second, cfg.Scraper.StopGrace)
	assert.Equal(t, 30*time.Second, cfg.Scraper.RequestTimeout)
	assert.Equal(t, config.DefaultParts, cfg.Scraper.Parts)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))
	t.Setenv("SCRAPER_PACING_DELAY", "250ms")
	t.Setenv("SCRAPER_PARTS", "oil filter, radiator")

	path := writeConfig(t, `
server:
  port: 9100
database:
  driver: sqlite
  path: /tmp/parts.db
scraper:
  pacing_delay: 3s
  pass_interval: 1h
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/parts.db", cfg.Database.DSN())
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.PacingDelay)
	assert.Equal(t, time.Hour, cfg.Scraper.PassInterval)
	assert.Equal(t, []string{"oil filter", "radiator"}, cfg.Scraper.Parts)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	path := writeConfig(t, "database:\n  driver: mysql\n")

	_, err := config.Load(path)
	require.Error(t, err)

	var vErr *config.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "database.driver", vErr.Field)
}

func TestDatabaseConfig_PostgresDSN(t *testing.T) {
	t.Parallel()

	d := config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     "db",
		Port:     5433,
		User:     "parts",
		Password: "p@ss",
		Name:     "catalog",
		SSLMode:  "disable",
	}
	assert.Equal(t, "postgres://parts:p%40ss@db:5433/catalog?sslmode=disable", d.DSN())
}
