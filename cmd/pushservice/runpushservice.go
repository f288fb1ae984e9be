// --- File: cmd/pushservice/runpushservice.go ---
package main

import (
	"context"
	_ "embed"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tinywideclouds/go-microservice-base/pkg/middleware"

	"github.com/rezvera/go-push-service/internal/platform/expo"
	"github.com/rezvera/go-push-service/internal/storage/cache"
	"github.com/rezvera/go-push-service/internal/storage/postgres"
	"github.com/rezvera/go-push-service/pkg/dispatch"
	"github.com/rezvera/go-push-service/pushservice"
	"github.com/rezvera/go-push-service/pushservice/config"
)

//go:embed local.yaml
var configFile []byte

func main() {
	var logLevel slog.Level
	switch os.Getenv("LOG_LEVEL") {
	case "debug", "DEBUG":
		logLevel = slog.LevelDebug
	case "info", "INFO":
		logLevel = slog.LevelInfo
	case "warn", "WARN":
		logLevel = slog.LevelWarn
	case "error", "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})).With("service", "go-push-service")
	slog.SetDefault(logger)

	ctx := context.Background()

	// --- Config Loading ---
	var yamlCfg config.YamlConfig
	if err := yaml.Unmarshal(configFile, &yamlCfg); err != nil {
		logger.Error("Failed to unmarshal embedded yaml config", "err", err)
		os.Exit(1)
	}
	baseCfg, _ := config.NewConfigFromYaml(&yamlCfg, logger)
	cfg, err := config.UpdateConfigWithEnvOverrides(baseCfg, logger)
	if err != nil {
		logger.Error("Config failed", "err", err)
		os.Exit(1)
	}

	// --- Database ---
	db, err := gorm.Open(gormpostgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		logger.Error("Database connection failed", "err", err)
		os.Exit(1)
	}
	store := postgres.NewStore(db)
	logger.Info("Store initialized", "type", "postgres")

	// --- Token Store (Decorated) ---
	var tokenStore dispatch.TokenStore = store
	if cfg.Redis.Enabled {
		logger.Info("Initializing Redis Cache layer...", "addr", cfg.Redis.Addr)
		redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Error("Failed to connect to Redis", "err", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		tokenStore = cache.NewCachedTokenStore(tokenStore, redisClient, 24*time.Hour)
		logger.Info("TokenStore upgraded", "type", "redis_cached_postgres")
	}

	// --- Auth ---
	identityURL := cfg.IdentityServiceURL
	if identityURL == "" {
		identityURL = "http://localhost:3000"
	}
	jwksURL, _ := middleware.DiscoverAndValidateJWTConfig(identityURL, middleware.RSA256, logger)
	authMiddleware, _ := middleware.NewJWKSAuthMiddleware(jwksURL, logger)

	// --- Dispatcher ---
	dispatcher := expo.NewDispatcher(cfg.Expo, logger)
	logger.Info("Dispatcher initialized", "type", "expo", "url", cfg.Expo.URL)

	// --- Service ---
	service, err := pushservice.New(
		cfg,
		store,
		tokenStore,
		dispatcher,
		authMiddleware,
		logger,
	)
	if err != nil {
		logger.Error("Service creation failed", "err", err)
		os.Exit(1)
	}

	logger.Info("Starting service...")
	if err := service.Start(ctx); err != nil {
		logger.Error("Service shutdown with error", "err", err)
		os.Exit(1)
	}
}
