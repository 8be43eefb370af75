package config

import (
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"launchdash/internal/errors"
)

// Dataset source kinds
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	Dataset   DatasetConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Dashboard DashboardConfig
}

// DatasetConfig selects where launch records are loaded from
type DatasetConfig struct {
	Source string
	File   string
	Sheet  string
	Table  string
}

// DatabaseConfig holds database connection settings for the postgres source
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port         string
	APIPort      string
	GinMode      string
	SSEKeepAlive time.Duration
}

// DashboardConfig holds control settings handed to the UI
type DashboardConfig struct {
	PayloadStep float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Dataset:   *loadDatasetConfig(),
		Database:  DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Server:    *loadServerConfig(),
		Dashboard: DashboardConfig{PayloadStep: getEnvFloatOrDefault("PAYLOAD_STEP", 1000)},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatasetConfig() *DatasetConfig {
	return &DatasetConfig{
		Source: strings.ToLower(getEnvOrDefault("DATASET_SOURCE", SourceFile)),
		File:   getEnvOrDefault("DATASET_FILE", "spacex_launch_dash.csv"),
		Sheet:  getEnvOrDefault("DATASET_SHEET", "Sheet1"),
		Table:  getEnvOrDefault("LAUNCH_TABLE", "launch_records"),
	}
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:         getEnvOrDefault("PORT", "8080"),
		APIPort:      getEnvOrDefault("API_PORT", "8081"),
		GinMode:      getEnvOrDefault("GIN_MODE", "debug"),
		SSEKeepAlive: getEnvDurationOrDefault("SSE_KEEPALIVE", 30*time.Second),
	}
}

func validateConfig(config *Config) error {
	switch config.Dataset.Source {
	case SourceFile:
		if config.Dataset.File == "" {
			return errors.ConfigInvalid("DATASET_FILE is required for the file source")
		}
	case SourcePostgres:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the postgres source")
		}
		if config.Dataset.Table == "" {
			return errors.ConfigInvalid("LAUNCH_TABLE is required for the postgres source")
		}
	default:
		return errors.ConfigInvalid("DATASET_SOURCE must be 'file' or 'postgres', got " + strconv.Quote(config.Dataset.Source))
	}
	if step := config.Dashboard.PayloadStep; math.IsNaN(step) || math.IsInf(step, 0) || step <= 0 {
		return errors.ConfigInvalid("PAYLOAD_STEP must be a positive finite number")
	}
	if config.Server.SSEKeepAlive <= 0 {
		return errors.ConfigInvalid("SSE_KEEPALIVE must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
