package config

import (
	"os"
	"strconv"
)

// LoadFromEnv loads configuration overrides from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("CAPSULE_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if key := os.Getenv("CAPSULE_API_KEY"); key != "" {
		cfg.Server.APIKey = key
	}

	if mode := os.Getenv("STORAGE_MODE"); mode != "" {
		cfg.Engine.StorageMode = mode
	}

	// Database settings
	if host := os.Getenv("CAPSULE_DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("CAPSULE_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	if user := os.Getenv("CAPSULE_DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if password := os.Getenv("CAPSULE_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if name := os.Getenv("CAPSULE_DB_NAME"); name != "" {
		cfg.Database.Database = name
	}

	// Trainer settings
	if min := os.Getenv("CAPSULE_TRAINER_MIN_RECORDS"); min != "" {
		if m, err := strconv.Atoi(min); err == nil {
			cfg.Engine.Trainer.MinRecords = m
		}
	}
	if delayed := os.Getenv("CAPSULE_TRAINER_COUNT_DELAYED_AS_MISS"); delayed != "" {
		if b, err := strconv.ParseBool(delayed); err == nil {
			cfg.Engine.Trainer.CountDelayedAsMiss = b
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
