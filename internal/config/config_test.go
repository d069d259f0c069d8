package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/entries.csv", cfg.CSVPath)
	assert.Contains(t, cfg.DatabaseDSN, "dbname=congestion")
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1000, cfg.BatchSize)
	assert.False(t, cfg.FailFast)
	assert.Empty(t, cfg.TimestampLayout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("CSV_PATH", "/tmp/march.csv")
	t.Setenv("DATABASE_DSN", "host=db user=etl dbname=crz")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "250")
	t.Setenv("FAIL_FAST", "true")
	t.Setenv("TIMESTAMP_LAYOUT", "2006-01-02 15:04")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/march.csv", cfg.CSVPath)
	assert.Equal(t, "host=db user=etl dbname=crz", cfg.DatabaseDSN)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.True(t, cfg.FailFast)
	assert.Equal(t, "2006-01-02 15:04", cfg.TimestampLayout)
}

func TestLoad_MissingCSVPath(t *testing.T) {
	t.Setenv("CSV_PATH", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CSV_PATH")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")
	t.Setenv("BATCH_SIZE", "99999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidFailFast(t *testing.T) {
	t.Setenv("CSV_PATH", "/data/entries.csv")
	t.Setenv("FAIL_FAST", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FAIL_FAST")
}
