// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration. It is constructed once in main and
// injected into every component that needs it; nothing reads the environment
// after Load returns.
type Config struct {
	DataDir           string // Base directory for the database file (always absolute)
	Port              int
	DevMode           bool
	LogLevel          string
	FinnhubAPIKey     string        // Credential for the US quote venue
	CronJobSecret     string        // Shared secret for the snapshot trigger endpoint
	QuoteCacheTTL     time.Duration // How long fetched quotes stay fresh
	HTTPClientTimeout time.Duration // Per-request timeout for venue clients

	// In-process scheduling. Disabled by default: the snapshot trigger
	// endpoint under an external scheduler is the authoritative path.
	EnableScheduler          bool
	DailySnapshotSchedule    string
	IntradaySnapshotSchedule string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                  absDataDir,
		Port:                     getEnvAsInt("PORT", 8080),
		DevMode:                  getEnvAsBool("DEV_MODE", false),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		FinnhubAPIKey:            getEnv("FINNHUB_API_KEY", ""),
		CronJobSecret:            getEnv("CRON_JOB_SECRET", ""),
		QuoteCacheTTL:            getEnvAsDuration("QUOTE_CACHE_TTL", 60*time.Second),
		HTTPClientTimeout:        getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 10*time.Second),
		EnableScheduler:          getEnvAsBool("ENABLE_SCHEDULER", false),
		DailySnapshotSchedule:    getEnv("DAILY_SNAPSHOT_SCHEDULE", "0 0 22 * * *"),
		IntradaySnapshotSchedule: getEnv("INTRADAY_SNAPSHOT_SCHEDULE", "0 */15 * * * *"),
	}

	return cfg, nil
}

// DatabasePath returns the path of the application database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "walletfolio.db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
