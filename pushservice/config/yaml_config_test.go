// --- File: pushservice/config/yaml_config_test.go ---
package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/rezvera/go-push-service/pushservice/config"
)

func TestNewConfigFromYaml(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success - maps all fields correctly", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			ListenAddr:         ":9000",
			IdentityServiceURL: "http://yaml-identity",
			DatabaseConfig: config.YamlDatabaseConfig{
				DSN: "postgres://yaml",
			},
			ExpoConfig: config.YamlExpoConfig{
				URL:            "http://yaml-expo",
				AccessToken:    "yaml-token",
				TimeoutSeconds: 15,
			},
			CronConfig: config.YamlCronConfig{
				Secret: "yaml-secret",
			},
			CorsConfig: config.YamlCorsConfig{
				AllowedOrigins: []string{"http://yaml.com"},
				Role:           "user",
			},
			RedisConfig: config.YamlRedisConfig{
				Addr:    "redis:6379",
				DB:      2,
				Enabled: true,
			},
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		require.NotNil(t, cfg)

		assert.Equal(t, ":9000", cfg.ListenAddr)
		assert.Equal(t, "http://yaml-identity", cfg.IdentityServiceURL)
		assert.Equal(t, "postgres://yaml", cfg.DatabaseDSN)
		assert.Equal(t, "yaml-secret", cfg.CronSecret)

		assert.Equal(t, "http://yaml-expo", cfg.Expo.URL)
		assert.Equal(t, "yaml-token", cfg.Expo.AccessToken)
		assert.Equal(t, 15*time.Second, cfg.Expo.Timeout)

		assert.Equal(t, []string{"http://yaml.com"}, cfg.CorsConfig.AllowedOrigins)
		assert.Equal(t, middleware.CorsRole("user"), cfg.CorsConfig.Role)

		assert.True(t, cfg.Redis.Enabled)
		assert.Equal(t, "redis:6379", cfg.Redis.Addr)
		assert.Equal(t, 2, cfg.Redis.DB)
	})

	t.Run("Success - Handles missing optional fields gracefully", func(t *testing.T) {
		yamlCfg := &config.YamlConfig{
			DatabaseConfig: config.YamlDatabaseConfig{DSN: "postgres://minimal"},
		}

		cfg, err := config.NewConfigFromYaml(yamlCfg, logger)

		require.NoError(t, err)
		assert.Equal(t, "postgres://minimal", cfg.DatabaseDSN)
		assert.Empty(t, cfg.ListenAddr)
		assert.Empty(t, cfg.CronSecret)
		assert.False(t, cfg.Redis.Enabled)
		assert.Zero(t, cfg.Expo.Timeout)
	})
}
