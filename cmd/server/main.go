package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/genome-variant-explorer/internal/api"
	"github.com/genome-variant-explorer/internal/cache"
	"github.com/genome-variant-explorer/internal/config"
	"github.com/genome-variant-explorer/internal/database"
	"github.com/genome-variant-explorer/internal/service"
	"github.com/genome-variant-explorer/internal/webhook"
)

func main() {
	configFile := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	configManager, err := config.NewManager(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	browser, err := service.New(service.Options{
		Upstreams:   cfg.Upstreams,
		Concurrency: cfg.Analysis.Concurrency,
		Registerer:  registry,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create genome service")
	}

	responseCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create cache")
	}
	defer responseCache.Close()

	if cfg.Database.Driver == "sqlite" {
		if err := config.EnsureDataDir(cfg.Database.URL); err != nil {
			logger.WithError(err).Fatal("Failed to create data directory")
		}
	}
	store, closeStore, err := database.OpenUserStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open user store")
	}
	defer closeStore()

	hooks, err := webhook.NewHandler(cfg.Webhook, store, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create webhook handler")
	}
	if cfg.Webhook.SigningSecret == "" {
		logger.Warn("Webhook signing secret is not set; user sync deliveries will be rejected")
	}

	// Create server
	server := api.NewServer(configManager, api.Options{
		Service:  browser,
		Cache:    responseCache,
		Webhook:  hooks,
		Registry: registry,
		Logger:   logger,
	})

	logger.WithField("production", configManager.IsProduction()).Infof("Starting genome explorer API on %s:%d", cfg.Server.Host, cfg.Server.Port)

	// Start server
	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Error("Server failed")
		stop()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
