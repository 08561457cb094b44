package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t, "SINK_TARGET", "OUTLIER_METHOD", "MIN_REQUIRED_SAMPLES", "COMPANY_SCALE_FACTOR",
		"FETCH_MAX_PAGES", "FETCH_PAGE_DELAY_MS", "WORKER_POOL_SIZE", "RANDOM_SEED", "OUTLIER_FACTOR")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, SinkNone, cfg.SinkTarget)
	assert.Equal(t, "iqr", cfg.Pipeline.OutlierMethod)
	assert.Equal(t, 2.0, cfg.Pipeline.OutlierFactor)
	assert.Equal(t, 30, cfg.Pipeline.MinRequiredSamples)
	assert.Equal(t, 0.607, cfg.Pipeline.ScaleFactor)
	assert.Equal(t, 1, cfg.Pipeline.WorkerPoolSize)
	assert.Equal(t, uint64(0), cfg.Pipeline.RandomSeed)
	assert.True(t, cfg.Pipeline.ReclampSynthetic)
	assert.Equal(t, 4, cfg.Fetch.MaxPages)
	assert.Equal(t, 1500*time.Millisecond, cfg.Fetch.PageDelay)
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)
}

func TestLoadConfigReadsEnvFile(t *testing.T) {
	clearEnv(t, "SINK_TARGET", "MIN_REQUIRED_SAMPLES", "OUTLIER_METHOD")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("MIN_REQUIRED_SAMPLES=12\nOUTLIER_METHOD=zscore\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Pipeline.MinRequiredSamples)
	assert.Equal(t, "zscore", cfg.Pipeline.OutlierMethod)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown outlier method", "OUTLIER_METHOD", "mad"},
		{"non-positive min required", "MIN_REQUIRED_SAMPLES", "0"},
		{"non-positive scale factor", "COMPANY_SCALE_FACTOR", "-1"},
		{"unknown sink", "SINK_TARGET", "mysql"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t, "SINK_TARGET", "OUTLIER_METHOD", "MIN_REQUIRED_SAMPLES", "COMPANY_SCALE_FACTOR")
			t.Setenv(tt.key, tt.val)

			_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigPostgresSink(t *testing.T) {
	t.Setenv("SINK_TARGET", "postgres")
	t.Setenv("DB_USER", "bench")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "salaries")
	clearEnv(t, "DB_DRIVER", "DB_SCHEMA", "DB_PORT", "DB_HOST", "DB_SSLMODE")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.NotNil(t, cfg.Postgres)

	assert.Equal(t, "pgx", cfg.Postgres.Driver)
	assert.Equal(t, "public", cfg.Postgres.Schema)
	assert.Equal(t, "host=localhost port=5432 user=bench password=secret dbname=salaries sslmode=disable",
		cfg.Postgres.ConnectionString())
}

func TestLoadConfigPostgresSinkRequiresCredentials(t *testing.T) {
	t.Setenv("SINK_TARGET", "postgres")
	clearEnv(t, "DB_USER", "DB_PASS", "DB_NAME")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadConfigPostgresRejectsUnknownDriver(t *testing.T) {
	t.Setenv("SINK_TARGET", "postgres")
	t.Setenv("DB_USER", "bench")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("DB_NAME", "salaries")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
