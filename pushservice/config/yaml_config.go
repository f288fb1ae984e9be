package config

import (
	"log/slog"
	"time"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"
)

type YamlCorsConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	Role           string   `yaml:"role"`
}

type YamlRedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

type YamlDatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type YamlExpoConfig struct {
	URL            string `yaml:"url"`
	AccessToken    string `yaml:"access_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type YamlCronConfig struct {
	Secret string `yaml:"secret"`
}

// YamlConfig is the structure that mirrors the raw config.yaml file.
type YamlConfig struct {
	ListenAddr         string             `yaml:"listen_addr"`
	IdentityServiceURL string             `yaml:"identity_service_url"`
	DatabaseConfig     YamlDatabaseConfig `yaml:"database"`
	ExpoConfig         YamlExpoConfig     `yaml:"expo"`
	CronConfig         YamlCronConfig     `yaml:"cron"`
	CorsConfig         YamlCorsConfig     `yaml:"cors"`
	RedisConfig        YamlRedisConfig    `yaml:"redis"`
}

// NewConfigFromYaml converts the YamlConfig into a clean, base Config struct.
func NewConfigFromYaml(baseCfg *YamlConfig, logger *slog.Logger) (*Config, error) {
	logger.Debug("Mapping YAML config to base config struct")

	cfg := &Config{
		ListenAddr:         baseCfg.ListenAddr,
		IdentityServiceURL: baseCfg.IdentityServiceURL,
		DatabaseDSN:        baseCfg.DatabaseConfig.DSN,
		CronSecret:         baseCfg.CronConfig.Secret,
		CorsConfig: middleware.CorsConfig{
			AllowedOrigins: baseCfg.CorsConfig.AllowedOrigins,
			Role:           middleware.CorsRole(baseCfg.CorsConfig.Role),
		},
		Redis: RedisConfig{
			Addr:     baseCfg.RedisConfig.Addr,
			Password: baseCfg.RedisConfig.Password,
			DB:       baseCfg.RedisConfig.DB,
			Enabled:  baseCfg.RedisConfig.Enabled,
		},
		Expo: ExpoConfig{
			URL:         baseCfg.ExpoConfig.URL,
			AccessToken: baseCfg.ExpoConfig.AccessToken,
			Timeout:     time.Duration(baseCfg.ExpoConfig.TimeoutSeconds) * time.Second,
		},
	}

	logger.Debug("YAML config mapping complete",
		"listen_addr", cfg.ListenAddr,
		"expo_url", cfg.Expo.URL,
	)

	return cfg, nil
}
