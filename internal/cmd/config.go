package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/promptparty/server/internal/game"
)

// AppConfig holds process-level settings read from the environment.
type AppConfig struct {
	Port        string
	JWTSecret   string
	TokenTTL    time.Duration
	RedisURL    string
	NatsURL     string
	PresenceTTL time.Duration

	DB DatabaseConfig
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

func loadAppConfig() (AppConfig, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return AppConfig{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return AppConfig{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   secret,
		TokenTTL:    time.Duration(getEnvAsInt("TOKEN_TTL_HOURS", 168)) * time.Hour,
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		NatsURL:     os.Getenv("NATS_URL"),
		PresenceTTL: time.Duration(getEnvAsInt("PRESENCE_TTL_SEC", 300)) * time.Second,
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "promptparty"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}, nil
}

// loadGameConfig reads the game tunables file, falling back to defaults
// when GAME_CONFIG_PATH is unset.
func loadGameConfig() (game.Config, error) {
	cfg := game.DefaultConfig()

	path := os.Getenv("GAME_CONFIG_PATH")
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read game config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse game config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
