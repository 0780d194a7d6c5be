// Package main provides the entry point for the GrabTube download service.
// @title GrabTube API
// @version 1.0
// @description A Go-based web service that resolves YouTube video metadata and proxies video and audio downloads.
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.example.com/support
// @contact.email support@example.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/grabtube/grabtube/docs" // Import for swagger docs
	"github.com/grabtube/grabtube/internal/api/handlers"
	"github.com/grabtube/grabtube/internal/api/router"
	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
	"github.com/grabtube/grabtube/internal/services/provider"
	"github.com/grabtube/grabtube/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting GrabTube service")

	// Transcode tool is shared by every strategy and probed lazily.
	tool := ffmpeg.New(cfg.Download.FfmpegPath)
	if !tool.Available() {
		logger.Warn("ffmpeg not found, falling back to pre-merged streams")
	}

	// Initialize the fetch provider
	p, err := provider.New(cfg, tool)
	if err != nil {
		logger.Fatalf("Failed to initialize provider: %v", err)
	}
	logger.Infof("Using %s provider strategy", p.Name())

	// Initialize handlers
	videoHandler := handlers.NewVideoHandler(p, &cfg.Download)
	healthHandler := handlers.NewHealthHandler(cfg, tool)

	// Initialize router
	r := router.NewRouter(cfg, videoHandler, healthHandler)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutdown complete")
}
