// Package config provides configuration management for the back office.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Addr         string
	DBPath       string
	ReceiptsPath string
	ChartFile    string
	Debug        bool
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Addr:         getEnvOrDefault("ADDR", ":8080"),
		DBPath:       getEnvOrDefault("DB_PATH", "./data/backoffice.db"),
		ReceiptsPath: getEnvOrDefault("RECEIPTS_PATH", "./data/receipts.db"),
		ChartFile:    os.Getenv("CHART_FILE"),
		Debug:        os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// ChartOverrides customizes display names of base chart accounts.
// Keys are account codes, values are the names to use when the account is
// first created. Existing accounts are never renamed.
type ChartOverrides struct {
	Accounts map[string]string `yaml:"accounts"`
}

// LoadChartOverrides reads an optional YAML chart file.
// Returns an empty override set if path is empty.
func LoadChartOverrides(path string) (*ChartOverrides, error) {
	overrides := &ChartOverrides{Accounts: map[string]string{}}
	if path == "" {
		return overrides, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	if err := yaml.Unmarshal(data, overrides); err != nil {
		return nil, fmt.Errorf("failed to parse chart file: %w", err)
	}
	if overrides.Accounts == nil {
		overrides.Accounts = map[string]string{}
	}
	return overrides, nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
