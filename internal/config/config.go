package config

import (
	"os"
	"strconv"

	"pacbayes/domain/connectivity"
	"pacbayes/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Analysis connectivity.Settings
	Workers  int
	Database DatabaseConfig
	Server   ServerConfig
	Export   ExportConfig
}

// DatabaseConfig holds the optional run-ledger connection settings
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds file export settings
type ExportConfig struct {
	ExcelFile  string
	ReportFile string
}

// Defaults mirrors the exploratory-analysis defaults of the engine.
func Defaults() connectivity.Settings {
	return connectivity.Settings{
		NumFragments:       10,
		NumSurrogates:      200,
		Alpha:              0.05,
		NumBins:            30,
		PosteriorThreshold: 0.1,
	}
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	settings := connectivity.Settings{
		NumFragments:       getEnvIntOrDefault("PAC_NUM_FRAGMENTS", 10),
		NumSurrogates:      getEnvIntOrDefault("PAC_NUM_SURROGATES", 200),
		Alpha:              getEnvFloatOrDefault("PAC_ALPHA", 0.05),
		NumBins:            getEnvIntOrDefault("PAC_NUM_BINS", 30),
		PosteriorThreshold: getEnvFloatOrDefault("PAC_POSTERIOR_THRESHOLD", 0.1),
	}

	config := &Config{
		Analysis: settings,
		Workers:  getEnvIntOrDefault("PAC_WORKERS", 0),
		Database: DatabaseConfig{
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Export: ExportConfig{
			ExcelFile:  getEnvOrDefault("PAC_EXCEL_FILE", ""),
			ReportFile: getEnvOrDefault("PAC_REPORT_FILE", ""),
		},
	}

	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
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
