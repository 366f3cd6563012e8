package logger_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/partprice/internal/logger"
)

func TestNew_WritesJSONWithFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	log, err := logger.New(logger.Config{Level: "debug", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.With(logger.String("component", "ingest")).Info("pass complete", logger.Int("brands", 3))
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(raw, &entry))
	assert.Equal(t, "pass complete", entry["msg"])
	assert.Equal(t, "ingest", entry["component"])
	assert.InDelta(t, 3, entry["brands"], 0)
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.log")
	log, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("hidden")
	require.NoError(t, log.Sync())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestConfig_SetDefaults(t *testing.T) {
	t.Parallel()

	var cfg logger.Config
	cfg.SetDefaults()

	assert.Equal(t, logger.DefaultLevel, cfg.Level)
	assert.Equal(t, logger.FormatJSON, cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	nop := logger.NewNop()
	ctx := logger.WithContext(context.Background(), nop)
	assert.Equal(t, nop, logger.FromContext(ctx))

	fallback := logger.FromContext(context.Background())
	require.NotNil(t, fallback)
	fallback.Debug("filtered")
}
