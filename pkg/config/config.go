package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide configuration, loaded once at startup and
// treated as read-only afterwards.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Notifx   NotifxConfig
	Jobx     JobxConfig
}

// Load reads the full configuration from the environment.
func Load() *Config {
	return &Config{
		Server:   loadServerConfig(),
		Database: loadDatabaseConfig(),
		Redis:    loadRedisConfig(),
		Auth:     loadAuthConfig(),
		Notifx:   loadNotifxConfig(),
		Jobx:     loadJobxConfig(),
	}
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port    int
	BaseURL string
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvInt("PORT", 8080),
		BaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
	}
}

// --- env helpers ---

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.EqualFold(value, "true") || value == "1"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvStringSlice(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
