package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/api"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/instance"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider/simulated"
	whatsmeowprovider "github.com/sashidhar498/Custom-WhatsApp-Api/internal/provider/whatsmeow"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage/memory"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage/mongodb"
	redisstore "github.com/sashidhar498/Custom-WhatsApp-Api/internal/storage/redis"
	"github.com/sashidhar498/Custom-WhatsApp-Api/internal/ws"
	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/config"
	"github.com/sashidhar498/Custom-WhatsApp-Api/pkg/logging"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting WhatsApp API server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := newStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize instance store", zap.Error(err))
	}
	defer func() { _ = store.Close() }()
	logger.Info("Instance store initialized", zap.String("type", cfg.Storage.Type))

	factory, err := newFactory(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize session provider", zap.Error(err))
	}
	defer func() { _ = factory.Close() }()
	logger.Info("Session provider initialized", zap.String("type", cfg.Provider.Type))

	registry := instance.NewRegistry(factory, store, logger)
	hub := ws.NewHub(logger)
	registry.Subscribe(hub.Publish)

	handlers := api.NewHandlers(registry, logger)
	router := api.NewRouter(cfg, handlers, hub, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	registry.DisconnectAll()
	hub.Close()

	logger.Info("Server stopped")
}

func newStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.InstanceStore, error) {
	switch cfg.Storage.Type {
	case "memory", "":
		return memory.NewStore(), nil
	case "mongodb":
		return mongodb.NewStore(ctx, mongodb.Config{
			URI:      cfg.Storage.MongoDB.URI,
			Database: cfg.Storage.MongoDB.Database,
			Timeout:  time.Duration(cfg.Storage.MongoDB.Timeout) * time.Second,
		}, logger)
	case "redis":
		return redisstore.NewStore(ctx, redisstore.Config{
			Address:   cfg.Storage.Redis.Address,
			Password:  cfg.Storage.Redis.Password,
			DB:        cfg.Storage.Redis.DB,
			KeyPrefix: cfg.Storage.Redis.KeyPrefix,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage.Type)
	}
}

func newFactory(cfg *config.Config, logger *zap.Logger) (provider.Factory, error) {
	switch cfg.Provider.Type {
	case "whatsmeow", "":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return whatsmeowprovider.NewFactory(ctx, whatsmeowprovider.Config{
			AuthDir:        cfg.Provider.AuthDir,
			ClientLogLevel: cfg.Provider.ClientLogLevel,
		}, logger)
	case "simulated":
		return simulated.NewFactory(logger), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider.Type)
	}
}
