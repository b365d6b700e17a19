package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds the service configuration, all sourced from environment
// variables. RedisAddr empty means lifecycle announcements are disabled.
type Config struct {
	Port           string
	RedisAddr      string
	AllowedOrigins []string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		Port:           getEnvOrDefault("PORT", "8080"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AllowedOrigins: splitOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "*")),
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if _, err := strconv.Atoi(config.Port); err != nil {
		return errors.New("invalid PORT: " + config.Port)
	}
	if len(config.AllowedOrigins) == 0 {
		return errors.New("ALLOWED_ORIGINS must not be empty")
	}
	return nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
