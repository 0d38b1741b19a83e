package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amaanshakeel0998/capsule-medication-tracker/internal/adherence"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Engine   EngineConfig   `yaml:"engine"`
}

type ServerConfig struct {
	Port          int     `yaml:"port" default:"8080"`
	APIKey        string  `yaml:"api_key"`
	RatePerSecond float64 `yaml:"rate_per_second" default:"50"`
	Burst         int     `yaml:"burst" default:"100"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

type EngineConfig struct {
	// StorageMode selects the history store: "memory" or "postgres".
	StorageMode string `yaml:"storage_mode" default:"memory"`
	// DelayToleranceMinutes is how late a taken dose may be before it is
	// recorded as delayed.
	DelayToleranceMinutes int                     `yaml:"delay_tolerance_minutes" default:"60"`
	Trainer               adherence.TrainerConfig `yaml:"trainer"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			RatePerSecond: 50,
			Burst:         100,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "capsule",
			Database: "capsule",
			SSLMode:  "disable",
		},
		Engine: EngineConfig{
			StorageMode:           "memory",
			DelayToleranceMinutes: 60,
			Trainer:               adherence.DefaultTrainerConfig(),
		},
	}
}

// Load reads a yaml config file over the defaults and then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	LoadFromEnv(cfg)
	return cfg, nil
}
