package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath   string
	UniverseDir    string
	SyncConfigPath string
	LogLevel       string
	Port           int
	DevMode        bool
	Benchmark      string // ticker used for relative momentum
	FearGauge      string // volatility index ticker used by the VaR scanner
	PriceWorkers   int    // worker pool width for price sync
	FundWorkers    int    // worker pool width for fundamentals/info sync
	FetchTimeout   time.Duration
	FullHistory    string // range fetched for tickers with no cached data
	OverlayTopN    int    // composite ranking entries that get the TA overlay
	SentimentURL   string
	RequestsPerSec float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		DatabasePath:   getEnv("DATABASE_PATH", "./data/quantdesk.db"),
		UniverseDir:    getEnv("UNIVERSE_DIR", "./data/universes"),
		SyncConfigPath: getEnv("SYNC_CONFIG_PATH", "./data/sync_config.json"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Port:           getEnvAsInt("PORT", 8090),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		Benchmark:      getEnv("BENCHMARK_TICKER", "SPY"),
		FearGauge:      getEnv("FEAR_GAUGE_TICKER", "^VIX"),
		PriceWorkers:   getEnvAsInt("PRICE_SYNC_WORKERS", 10),
		FundWorkers:    getEnvAsInt("FUNDAMENTALS_SYNC_WORKERS", 5),
		FetchTimeout:   getEnvAsDuration("FETCH_TIMEOUT", 5*time.Second),
		FullHistory:    getEnv("FULL_HISTORY_RANGE", "2y"),
		OverlayTopN:    getEnvAsInt("OVERLAY_TOP_N", 20),
		SentimentURL:   getEnv("SENTIMENT_URL", "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"),
		RequestsPerSec: getEnvAsFloat("REQUESTS_PER_SEC", 5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.PriceWorkers < 1 {
		return fmt.Errorf("PRICE_SYNC_WORKERS must be at least 1")
	}
	if c.FundWorkers < 1 {
		return fmt.Errorf("FUNDAMENTALS_SYNC_WORKERS must be at least 1")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	return nil
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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
