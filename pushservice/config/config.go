// Package config holds the authoritative service configuration: an
// embedded YAML file provides the base, environment variables override it.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

// DefaultExpoURL is the production endpoint of the Expo push gateway.
const DefaultExpoURL = "https://exp.host/--/api/v2/push/send"

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// ExpoConfig configures the outbound gateway client.
type ExpoConfig struct {
	URL         string
	AccessToken string
	Timeout     time.Duration
}

// Config defines the *single*, authoritative configuration.
type Config struct {
	ListenAddr         string
	IdentityServiceURL string
	DatabaseDSN        string
	CronSecret         string

	CorsConfig middleware.CorsConfig
	Redis      RedisConfig
	Expo       ExpoConfig
}

// UpdateConfigWithEnvOverrides applies environment variables and final validation.
func UpdateConfigWithEnvOverrides(cfg *Config, logger *slog.Logger) (*Config, error) {
	logger.Debug("Applying environment variable overrides...")

	if val := os.Getenv("PORT"); val != "" {
		logger.Debug("Overriding config value", "key", "PORT", "source", "env")
		cfg.ListenAddr = ":" + val
	}
	if val := os.Getenv("IDENTITY_SERVICE_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "IDENTITY_SERVICE_URL", "source", "env")
		cfg.IdentityServiceURL = val
	}
	if val := os.Getenv("DATABASE_DSN"); val != "" {
		logger.Debug("Overriding config value", "key", "DATABASE_DSN", "source", "env")
		cfg.DatabaseDSN = val
	}
	if val := os.Getenv("CRON_SECRET"); val != "" {
		logger.Debug("Overriding config value", "key", "CRON_SECRET", "source", "env")
		cfg.CronSecret = val
	}

	// Expo overrides
	if val := os.Getenv("EXPO_PUSH_URL"); val != "" {
		logger.Debug("Overriding config value", "key", "EXPO_PUSH_URL", "source", "env")
		cfg.Expo.URL = val
	}
	if val := os.Getenv("EXPO_ACCESS_TOKEN"); val != "" {
		logger.Debug("Overriding config value", "key", "EXPO_ACCESS_TOKEN", "source", "env")
		cfg.Expo.AccessToken = val
	}
	if val := os.Getenv("EXPO_TIMEOUT_SECONDS"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			logger.Debug("Overriding config value", "key", "EXPO_TIMEOUT_SECONDS", "source", "env")
			cfg.Expo.Timeout = time.Duration(secs) * time.Second
		}
	}

	// Redis overrides
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		cfg.Redis.Addr = val
		cfg.Redis.Enabled = true
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		cfg.Redis.Password = val
	}
	if val := os.Getenv("REDIS_DB"); val != "" {
		if db, err := strconv.Atoi(val); err == nil {
			cfg.Redis.DB = db
		}
	}
	if val := os.Getenv("REDIS_ENABLED"); val != "" {
		enabled, _ := strconv.ParseBool(val)
		cfg.Redis.Enabled = enabled
	}

	// CORS overrides
	if corsOrigins := os.Getenv("CORS_ALLOWED_ORIGINS"); corsOrigins != "" {
		logger.Debug("Overriding config value", "key", "CORS_ALLOWED_ORIGINS", "source", "env")
		rawOrigins := strings.Split(corsOrigins, ",")
		var cleanOrigins []string
		for _, o := range rawOrigins {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				cleanOrigins = append(cleanOrigins, trimmed)
			}
		}
		cfg.CorsConfig.AllowedOrigins = cleanOrigins
	}

	// Final validation. The cron secret is deliberately NOT required
	// here: a missing secret surfaces as a 500 on the cron endpoint
	// instead of blocking the event endpoints at boot.
	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("database dsn is required (set via YAML or DATABASE_DSN env var)")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Expo.URL == "" {
		cfg.Expo.URL = DefaultExpoURL
	}
	if cfg.Expo.Timeout <= 0 {
		cfg.Expo.Timeout = 10 * time.Second
	}

	logger.Debug("Configuration finalized and validated successfully")
	return cfg, nil
}
