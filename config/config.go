package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort       string
	DatabaseURL      string
	AdminToken       string
	AuthServiceURL   string
	AuthServiceKey   string
	MistralAPIKey    string
	PerplexityAPIKey string
	SearchProvider   string
	CacheTTLHours    string
	LogLevel         string
}

// GetCacheTTL returns the coupon cache freshness window from environment or default
func (c *Config) GetCacheTTL() time.Duration {
	if c.CacheTTLHours == "" {
		return 24 * time.Hour
	}

	hours, err := strconv.Atoi(c.CacheTTLHours)
	if err != nil {
		logrus.Warnf("Invalid CACHE_TTL_HOURS value: %s, using default 24 hours", c.CacheTTLHours)
		return 24 * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// ApplyLogLevel configures the global logrus level from config
func (c *Config) ApplyLogLevel() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.Warnf("Invalid LOG_LEVEL value: %s, using info", c.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		AdminToken:       getEnv("ADMIN_TOKEN", ""),
		AuthServiceURL:   getEnv("AUTH_SERVICE_URL", ""),
		AuthServiceKey:   getEnv("AUTH_SERVICE_KEY", ""),
		MistralAPIKey:    getEnv("MISTRAL_API_KEY", ""),
		PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		SearchProvider:   getEnv("SEARCH_PROVIDER", "mistral"),
		CacheTTLHours:    getEnv("CACHE_TTL_HOURS", "24"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
