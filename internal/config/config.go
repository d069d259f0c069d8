// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultBatchSize = 1000
	maxBatchSize     = 10000
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CSVPath         string
	DatabaseDSN     string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize       int
	FailFast        bool
	TimestampLayout string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	failFast, err := parseBool("FAIL_FAST", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CSVPath:         os.Getenv("CSV_PATH"),
		DatabaseDSN:     envOrDefault("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=congestion port=5432 sslmode=disable"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,
		FailFast:        failFast,
		TimestampLayout: os.Getenv("TIMESTAMP_LAYOUT"),
	}

	if cfg.CSVPath == "" {
		return nil, errors.New("CSV_PATH is required")
	}
	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	s := os.Getenv("BATCH_SIZE")
	if s == "" {
		return defaultBatchSize, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > maxBatchSize {
		return 0, fmt.Errorf("invalid BATCH_SIZE: must be between 1 and %d", maxBatchSize)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, s)
	}
	return b, nil
}
