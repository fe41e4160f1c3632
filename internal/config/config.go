// internal/config/config.go
// Centralized configuration management
// Loads from environment variables with sensible defaults

package config

import (
    "fmt"
    "os"
    "strconv"
    "time"
)

// Config holds all application configuration
type Config struct {
    // Server
    Port        string
    Environment string

    // Database
    DatabaseURL string
    RedisURL    string

    // Security
    JWTSecret string

    // Recommendations
    RecommendationCacheTTL time.Duration
    RecommendationLimit    int

    // Scheduled jobs
    BoostDecayInterval time.Duration
    EventRetentionDays int
}

// Load reads configuration from environment variables
func Load() *Config {
    return &Config{
        // Server
        Port:        getEnv("PORT", "8080"),
        Environment: getEnv("ENVIRONMENT", "development"),

        // Database
        DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/matchmaking?sslmode=disable"),
        RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),

        // Security
        JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-this-in-production"),

        // Recommendations
        RecommendationCacheTTL: getEnvDuration("RECOMMENDATION_CACHE_TTL", "24h"),
        RecommendationLimit:    getEnvInt("RECOMMENDATION_LIMIT", 20),

        // Scheduled jobs
        BoostDecayInterval: getEnvDuration("BOOST_DECAY_INTERVAL", "1h"),
        EventRetentionDays: getEnvInt("EVENT_RETENTION_DAYS", 90),
    }
}

// Validate validates the configuration
func (c *Config) Validate() error {
    if c.DatabaseURL == "" {
        return fmt.Errorf("database URL is required")
    }

    if c.JWTSecret == "your-super-secret-key-change-this-in-production" && c.Environment == "production" {
        return fmt.Errorf("JWT secret must be changed for production")
    }

    if c.RecommendationLimit < 1 {
        return fmt.Errorf("recommendation limit must be positive")
    }

    if c.EventRetentionDays < 1 {
        return fmt.Errorf("event retention must be at least one day")
    }

    return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
    return c.Environment == "production"
}

// Helper functions

// getEnv gets a string value from environment with a default
func getEnv(key, defaultValue string) string {
    if value := os.Getenv(key); value != "" {
        return value
    }
    return defaultValue
}

// getEnvInt gets an integer value from environment with a default
func getEnvInt(key string, defaultValue int) int {
    if value := os.Getenv(key); value != "" {
        if intVal, err := strconv.Atoi(value); err == nil {
            return intVal
        }
    }
    return defaultValue
}

// getEnvDuration gets a duration value from environment with a default
func getEnvDuration(key string, defaultValue string) time.Duration {
    value := getEnv(key, defaultValue)
    duration, err := time.ParseDuration(value)
    if err != nil {
        duration, _ = time.ParseDuration(defaultValue)
    }
    return duration
}
