package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/genome-variant-explorer/internal/config"
	"github.com/genome-variant-explorer/internal/mcp"
	"github.com/genome-variant-explorer/internal/service"
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

	// stdout carries the protocol; logs go to stderr.
	logger := config.NewLogger(cfg.Logging)

	browser, err := service.New(service.Options{
		Upstreams:   cfg.Upstreams,
		Concurrency: cfg.Analysis.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create genome service")
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(cfg.MCP, browser, logger)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		stop()
		os.Exit(1)
	}

	logger.Info("Genome explorer MCP server stopped")
}
