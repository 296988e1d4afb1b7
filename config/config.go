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
	Port      int
	LogLevel  string
	LogPretty bool

	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string

	AdvisoryTimeout        time.Duration
	AdvisoryTTL            time.Duration
	RateDeviationThreshold float64
	MaturityTolerance      float64

	RedisAddr string

	RateLimitCapacity int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:                   getEnvAsInt("PORT", 8080),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		LogPretty:              getEnvAsBool("LOG_PRETTY", false),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""), // empty disables advisory text generation
		OpenAIAPIURL:           getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:            getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AdvisoryTimeout:        getEnvAsDuration("ADVISORY_TIMEOUT", 10*time.Second),
		AdvisoryTTL:            getEnvAsDuration("ADVISORY_TTL", 15*time.Minute),
		RateDeviationThreshold: getEnvAsFloat("RATE_DEVIATION_THRESHOLD", 2),
		MaturityTolerance:      getEnvAsFloat("MATURITY_TOLERANCE", 0.05),
		RedisAddr:              getEnv("REDIS_ADDR", ""), // empty uses the in-memory cache
		RateLimitCapacity:      getEnvAsInt("RATE_LIMIT_CAPACITY", 30),
		RateLimitWindow:        getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that configured values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.AdvisoryTimeout <= 0 {
		return fmt.Errorf("ADVISORY_TIMEOUT must be positive")
	}
	if c.AdvisoryTTL <= 0 {
		return fmt.Errorf("ADVISORY_TTL must be positive")
	}
	if c.RateDeviationThreshold <= 0 {
		return fmt.Errorf("RATE_DEVIATION_THRESHOLD must be positive")
	}
	if c.MaturityTolerance <= 0 {
		return fmt.Errorf("MATURITY_TOLERANCE must be positive")
	}
	if c.RateLimitCapacity <= 0 {
		return fmt.Errorf("RATE_LIMIT_CAPACITY must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
