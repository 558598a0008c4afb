package config

import (
	"os"
	"strconv"

	"sleepsense/domain/metrics"
	"sleepsense/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis metrics.Config
	Server   ServerConfig
	Database DatabaseConfig
	Paths    PathConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. The database is
// optional: an empty URL disables the postgres repository and keeps
// everything in memory.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// PathConfig holds file system paths
type PathConfig struct {
	DataDir    string
	ResultsDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Analysis: metrics.Config{
			ThresholdDB:           getEnvFloatOrDefault("THRESHOLD_DB", metrics.DefaultThresholdDB),
			SmoothingWindow:       getEnvIntOrDefault("SMOOTHING_WINDOW", metrics.DefaultSmoothingWindow),
			SignificanceThreshold: getEnvFloatOrDefault("SIGNIFICANCE_THRESHOLD", metrics.DefaultSignificanceThreshold),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Paths: PathConfig{
			DataDir:    getEnvOrDefault("DATA_DIR", "data"),
			ResultsDir: getEnvOrDefault("RESULTS_DIR", "results"),
		},
	}

	if err := config.Analysis.Validate(); err != nil {
		return nil, errors.Wrap(err, "analysis configuration invalid")
	}
	if config.Server.Port == "" {
		return nil, errors.ConfigInvalid("server port is required")
	}
	return config, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
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
